// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parley-dev/parley/lib/mcpsession"
)

// fakeNWS serves canned GeoJSON for Colorado alerts, an empty alert
// list for Hawaii, and a six-period forecast for Denver.
func fakeNWS(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	mux := http.NewServeMux()

	checkHeaders := func(request *http.Request) {
		if got := request.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("User-Agent = %q, want %q", got, userAgent)
		}
		if got := request.Header.Get("Accept"); got != "application/geo+json" {
			t.Errorf("Accept = %q", got)
		}
	}
	writeJSON := func(writer http.ResponseWriter, value any) {
		writer.Header().Set("Content-Type", "application/geo+json")
		if err := json.NewEncoder(writer).Encode(value); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}

	mux.HandleFunc("GET /alerts/active/area/{state}", func(writer http.ResponseWriter, request *http.Request) {
		checkHeaders(request)
		switch request.PathValue("state") {
		case "CO":
			writeJSON(writer, map[string]any{"features": []any{
				map[string]any{"properties": map[string]any{
					"event":       "Winter Storm Warning",
					"areaDesc":    "Denver Metro",
					"severity":    "Severe",
					"description": "Heavy snow expected.",
					"instruction": "Avoid travel.",
				}},
				map[string]any{"properties": map[string]any{"event": "Wind Advisory"}},
			}})
		case "HI":
			writeJSON(writer, map[string]any{"features": []any{}})
		default:
			http.Error(writer, "upstream failure", http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("GET /points/{coordinates}", func(writer http.ResponseWriter, request *http.Request) {
		checkHeaders(request)
		if request.PathValue("coordinates") != "39.7392,-104.9903" {
			http.NotFound(writer, request)
			return
		}
		writeJSON(writer, map[string]any{"properties": map[string]any{
			"forecast": server.URL + "/gridpoints/BOU/62,60/forecast",
		}})
	})
	mux.HandleFunc("GET /gridpoints/BOU/62,60/forecast", func(writer http.ResponseWriter, request *http.Request) {
		checkHeaders(request)
		var periods []map[string]any
		for i := 1; i <= 6; i++ {
			periods = append(periods, map[string]any{
				"name":             fmt.Sprintf("Period %d", i),
				"temperature":      40 + i,
				"temperatureUnit":  "F",
				"windSpeed":        "10 mph",
				"windDirection":    "NW",
				"detailedForecast": fmt.Sprintf("Forecast %d.", i),
			})
		}
		writeJSON(writer, map[string]any{"properties": map[string]any{"periods": periods}})
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// connectWeather serves the weather server over in-memory transports
// and returns a client session to it.
func connectWeather(t *testing.T, apiBase string) *mcpsession.Session {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := newServer(newNWSClient(apiBase, nil), logger, "test").Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	session, err := mcpsession.ConnectTransport(ctx, clientTransport, mcpsession.Options{ClientName: "weather-test"})
	if err != nil {
		t.Fatalf("ConnectTransport: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
		serverSession.Close()
	})
	return session
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	session := connectWeather(t, fakeNWS(t).URL)
	ctx := context.Background()

	summary, err := mcpsession.Summarize(ctx, session, nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.String() != "2 tools, 3 resources, 4 prompts" {
		t.Errorf("summary = %q", summary)
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
		var schema struct {
			Type     string   `json:"type"`
			Required []string `json:"required"`
		}
		if err := json.Unmarshal(tool.InputSchema, &schema); err != nil || schema.Type != "object" || len(schema.Required) == 0 {
			t.Errorf("tool %s schema = %s", tool.Name, tool.InputSchema)
		}
	}
	sort.Strings(names)
	if strings.Join(names, ",") != "get_alerts,get_forecast" {
		t.Errorf("tools = %v", names)
	}
}

func TestGetAlerts(t *testing.T) {
	t.Parallel()

	session := connectWeather(t, fakeNWS(t).URL)

	tests := []struct {
		name      string
		state     string
		wants     []string
		wantError bool
	}{
		{
			name:  "active alerts",
			state: "co",
			wants: []string{
				"Event: Winter Storm Warning\nArea: Denver Metro\nSeverity: Severe\nDescription: Heavy snow expected.\nInstructions: Avoid travel.",
				"\n---\n",
				"Event: Wind Advisory\nArea: Unknown\nSeverity: Unknown\nDescription: No description available\nInstructions: No specific instructions provided",
			},
		},
		{name: "no alerts", state: "HI", wants: []string{"No active alerts for this state."}},
		{name: "upstream failure", state: "TX", wants: []string{"Unable to fetch alerts or no alerts found."}},
		{name: "invalid state", state: "Colorado", wants: []string{"two-letter"}, wantError: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			result, err := session.CallTool(context.Background(), "get_alerts", map[string]any{"state": test.state})
			if err != nil {
				t.Fatalf("CallTool: %v", err)
			}
			if result.IsError != test.wantError {
				t.Errorf("IsError = %v, want %v", result.IsError, test.wantError)
			}
			text := result.Text()
			for _, want := range test.wants {
				if !strings.Contains(text, want) {
					t.Errorf("result does not contain %q:\n%s", want, text)
				}
			}
		})
	}
}

func TestGetForecast(t *testing.T) {
	t.Parallel()

	session := connectWeather(t, fakeNWS(t).URL)
	ctx := context.Background()

	result, err := session.CallTool(ctx, "get_forecast", map[string]any{"latitude": 39.7392, "longitude": -104.9903})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	text := result.Text()
	if result.IsError {
		t.Fatalf("forecast failed: %s", text)
	}
	if got := strings.Count(text, "\n---\n"); got != forecastPeriods-1 {
		t.Errorf("separators = %d, want %d", got, forecastPeriods-1)
	}
	if !strings.Contains(text, "Period 1:\nTemperature: 41°F\nWind: 10 mph NW\nForecast: Forecast 1.") {
		t.Errorf("first period missing:\n%s", text)
	}
	if strings.Contains(text, "Period 6") {
		t.Errorf("forecast shows more than %d periods:\n%s", forecastPeriods, text)
	}

	unknown, err := session.CallTool(ctx, "get_forecast", map[string]any{"latitude": 10.0, "longitude": 10.0})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if unknown.Text() != "Unable to fetch forecast data for this location." {
		t.Errorf("unknown point = %q", unknown.Text())
	}

	// The SDK may reject the call against the schema before the
	// handler sees it; either way it must not succeed.
	missing, err := session.CallTool(ctx, "get_forecast", map[string]any{"latitude": 39.7})
	if err == nil && !missing.IsError {
		t.Errorf("missing longitude accepted: %q", missing.Text())
	}
}

func TestResources(t *testing.T) {
	t.Parallel()

	apiBase := fakeNWS(t).URL
	session := connectWeather(t, apiBase)

	tests := []struct {
		uri   string
		wants []string
	}{
		{"weather://cities", []string{"Major US Cities (Name: Latitude, Longitude):", "New York: 40.7128, -74.006", "Phoenix: 33.4484, -112.074"}},
		{"weather://states", []string{"US State Codes (Code: Full Name):\nAL: Alabama", "WY: Wyoming"}},
		{"weather://api-info", []string{"Base URL: " + apiBase, "User Agent: " + userAgent, "/alerts/active/area/{state}", "Last updated: "}},
	}
	for _, test := range tests {
		contents, err := session.ReadResource(context.Background(), test.uri)
		if err != nil {
			t.Fatalf("ReadResource(%s): %v", test.uri, err)
		}
		if len(contents) != 1 {
			t.Fatalf("ReadResource(%s) = %d contents, want 1", test.uri, len(contents))
		}
		for _, want := range test.wants {
			if !strings.Contains(contents[0].Text, want) {
				t.Errorf("%s does not contain %q:\n%s", test.uri, want, contents[0].Text)
			}
		}
	}
	if count := strings.Count(statesText(), "\n"); count != 50 {
		t.Errorf("states listing has %d entries, want 50", count)
	}
}

func TestPrompts(t *testing.T) {
	t.Parallel()

	session := connectWeather(t, fakeNWS(t).URL)
	ctx := context.Background()

	list, err := session.ListPrompts(ctx)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	required := make(map[string][]string)
	for _, prompt := range list {
		for _, argument := range prompt.Arguments {
			if argument.Required {
				required[prompt.Name] = append(required[prompt.Name], argument.Name)
			}
		}
	}
	if got := strings.Join(required["travel_weather_advisory"], ","); got != "origin,destination" {
		t.Errorf("travel_weather_advisory required = %q", got)
	}

	tests := []struct {
		name      string
		arguments map[string]string
		want      string
	}{
		{"weather_report", map[string]string{"location": "Denver"}, "comprehensive weather report for Denver."},
		{"severe_weather_analysis", map[string]string{"state": "TX"}, "severe weather situation for TX for today."},
		{"severe_weather_analysis", map[string]string{"state": "TX", "timeframe": "this weekend"}, "for TX for this weekend."},
		{"travel_weather_advisory", map[string]string{"origin": "Denver", "destination": "Chicago"}, "from Denver to Chicago on today."},
		{"emergency_weather_briefing", map[string]string{"location": "Houston"}, "emergency weather briefing for Houston for emergency response teams."},
	}
	for _, test := range tests {
		result, err := session.GetPrompt(ctx, test.name, test.arguments)
		if err != nil {
			t.Fatalf("GetPrompt(%s): %v", test.name, err)
		}
		if len(result.Messages) != 1 || result.Messages[0].Role != "user" {
			t.Fatalf("GetPrompt(%s) messages = %+v", test.name, result.Messages)
		}
		if text := result.Messages[0].Content.Text; !strings.Contains(text, test.want) {
			t.Errorf("GetPrompt(%s) does not contain %q:\n%s", test.name, test.want, text)
		}
	}

	if _, err := session.GetPrompt(ctx, "travel_weather_advisory", map[string]string{"origin": "Denver"}); err == nil {
		t.Error("GetPrompt without a required argument succeeded")
	}
}

func TestFormatCoordinate(t *testing.T) {
	t.Parallel()

	for value, want := range map[float64]string{
		39.7392:    "39.7392",
		-104.99031: "-104.9903",
		40:         "40",
		-74.006:    "-74.006",
	} {
		if got := formatCoordinate(value); got != want {
			t.Errorf("formatCoordinate(%v) = %q, want %q", value, got, want)
		}
	}
}
