// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults for the National Weather Service API.
const (
	defaultNWSBaseURL = "https://api.weather.gov"
	userAgent         = "parley-weather/1.0"
	requestTimeout    = 30 * time.Second

	// forecastPeriods is how many forecast periods get_forecast shows.
	forecastPeriods = 5
)

// nwsClient fetches GeoJSON from the National Weather Service API.
type nwsClient struct {
	baseURL    string
	httpClient *http.Client
}

func newNWSClient(baseURL string, httpClient *http.Client) *nwsClient {
	if baseURL == "" {
		baseURL = defaultNWSBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &nwsClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// get fetches url and decodes the JSON body into target.
func (client *nwsClient) get(ctx context.Context, url string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("nws: creating request: %w", err)
	}
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Accept", "application/geo+json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("nws: GET %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("nws: GET %s: HTTP %d: %s", url, response.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("nws: decoding %s: %w", url, err)
	}
	return nil
}

type alertCollection struct {
	Features []struct {
		Properties alertProperties `json:"properties"`
	} `json:"features"`
}

type alertProperties struct {
	Event       string `json:"event"`
	AreaDesc    string `json:"areaDesc"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

// alerts returns the active alerts for a two-letter state code.
func (client *nwsClient) alerts(ctx context.Context, state string) ([]alertProperties, error) {
	var collection alertCollection
	if err := client.get(ctx, client.baseURL+"/alerts/active/area/"+state, &collection); err != nil {
		return nil, err
	}
	if collection.Features == nil {
		return nil, fmt.Errorf("nws: alerts for %s: response has no features", state)
	}
	alerts := make([]alertProperties, 0, len(collection.Features))
	for _, feature := range collection.Features {
		alerts = append(alerts, feature.Properties)
	}
	return alerts, nil
}

type forecastPeriod struct {
	Name             string `json:"name"`
	Temperature      int    `json:"temperature"`
	TemperatureUnit  string `json:"temperatureUnit"`
	WindSpeed        string `json:"windSpeed"`
	WindDirection    string `json:"windDirection"`
	DetailedForecast string `json:"detailedForecast"`
}

// forecast resolves the grid point for a coordinate, then fetches its
// forecast periods.
func (client *nwsClient) forecast(ctx context.Context, latitude, longitude float64) ([]forecastPeriod, error) {
	var point struct {
		Properties struct {
			Forecast string `json:"forecast"`
		} `json:"properties"`
	}
	pointURL := fmt.Sprintf("%s/points/%s,%s", client.baseURL, formatCoordinate(latitude), formatCoordinate(longitude))
	if err := client.get(ctx, pointURL, &point); err != nil {
		return nil, err
	}
	if point.Properties.Forecast == "" {
		return nil, fmt.Errorf("nws: grid point %s has no forecast URL", pointURL)
	}

	var forecast struct {
		Properties struct {
			Periods []forecastPeriod `json:"periods"`
		} `json:"properties"`
	}
	if err := client.get(ctx, point.Properties.Forecast, &forecast); err != nil {
		return nil, err
	}
	return forecast.Properties.Periods, nil
}

// formatCoordinate trims a coordinate to the four decimals the API
// accepts.
func formatCoordinate(value float64) string {
	formatted := strings.TrimRight(fmt.Sprintf("%.4f", value), "0")
	return strings.TrimSuffix(formatted, ".")
}

func formatAlert(alert alertProperties) string {
	return fmt.Sprintf("\nEvent: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstructions: %s\n",
		orDefault(alert.Event, "Unknown"),
		orDefault(alert.AreaDesc, "Unknown"),
		orDefault(alert.Severity, "Unknown"),
		orDefault(alert.Description, "No description available"),
		orDefault(alert.Instruction, "No specific instructions provided"),
	)
}

func formatPeriod(period forecastPeriod) string {
	return fmt.Sprintf("\n%s:\nTemperature: %d°%s\nWind: %s %s\nForecast: %s\n",
		period.Name, period.Temperature, period.TemperatureUnit,
		period.WindSpeed, period.WindDirection, period.DetailedForecast)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
