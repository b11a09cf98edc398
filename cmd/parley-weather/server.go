// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// weatherServer holds what the tool and resource handlers share.
type weatherServer struct {
	nws    *nwsClient
	logger *slog.Logger
	now    func() time.Time
}

// newServer returns an MCP server exposing the weather tools,
// resources, and prompts.
func newServer(nws *nwsClient, logger *slog.Logger, version string) *mcp.Server {
	weather := &weatherServer{nws: nws, logger: logger, now: time.Now}
	server := mcp.NewServer(&mcp.Implementation{Name: "weather", Version: version}, nil)
	weather.addTools(server)
	weather.addResources(server)
	addPrompts(server)
	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// errorResult reports a tool failure to the model rather than to the
// protocol.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	result := textResult(fmt.Sprintf(format, args...))
	result.IsError = true
	return result
}

func (weather *weatherServer) addTools(server *mcp.Server) {
	server.AddTool(&mcp.Tool{
		Name:        "get_alerts",
		Description: "Get weather alerts for a US state.\n\nArgs:\n    state: Two-letter US state code (e.g. CA, NY)",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"state": map[string]any{"type": "string", "description": "Two-letter US state code (e.g. CA, NY)"},
			},
			"required": []any{"state"},
		},
	}, weather.getAlerts)

	server.AddTool(&mcp.Tool{
		Name:        "get_forecast",
		Description: "Get weather forecast for a location.\n\nArgs:\n    latitude: Latitude of the location\n    longitude: Longitude of the location",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"latitude":  map[string]any{"type": "number", "description": "Latitude of the location"},
				"longitude": map[string]any{"type": "number", "description": "Longitude of the location"},
			},
			"required": []any{"latitude", "longitude"},
		},
	}, weather.getForecast)
}

func (weather *weatherServer) getAlerts(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var arguments struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(request.Params.Arguments, &arguments); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	state := strings.ToUpper(strings.TrimSpace(arguments.State))
	if len(state) != 2 {
		return errorResult("state must be a two-letter US state code, got %q", arguments.State), nil
	}

	alerts, err := weather.nws.alerts(ctx, state)
	if err != nil {
		weather.logger.Warn("fetching alerts failed", "state", state, "error", err)
		return textResult("Unable to fetch alerts or no alerts found."), nil
	}
	if len(alerts) == 0 {
		return textResult("No active alerts for this state."), nil
	}
	formatted := make([]string, len(alerts))
	for i, alert := range alerts {
		formatted[i] = formatAlert(alert)
	}
	return textResult(strings.Join(formatted, "\n---\n")), nil
}

func (weather *weatherServer) getForecast(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var arguments struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(request.Params.Arguments, &arguments); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	if arguments.Latitude == nil || arguments.Longitude == nil {
		return errorResult("latitude and longitude are required"), nil
	}
	latitude, longitude := *arguments.Latitude, *arguments.Longitude
	if math.Abs(latitude) > 90 || math.Abs(longitude) > 180 {
		return errorResult("coordinates out of range: %g, %g", latitude, longitude), nil
	}

	periods, err := weather.nws.forecast(ctx, latitude, longitude)
	if err != nil {
		weather.logger.Warn("fetching forecast failed", "latitude", latitude, "longitude", longitude, "error", err)
		return textResult("Unable to fetch forecast data for this location."), nil
	}
	if len(periods) > forecastPeriods {
		periods = periods[:forecastPeriods]
	}
	formatted := make([]string, len(periods))
	for i, period := range periods {
		formatted[i] = formatPeriod(period)
	}
	return textResult(strings.Join(formatted, "\n---\n")), nil
}

func (weather *weatherServer) addResources(server *mcp.Server) {
	static := func(render func() string) mcp.ResourceHandler {
		return func(_ context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
				URI:      request.Params.URI,
				MIMEType: "text/plain",
				Text:     render(),
			}}}, nil
		}
	}

	server.AddResource(&mcp.Resource{
		URI:         "weather://cities",
		Name:        "get_major_cities",
		Description: "List of major US cities with coordinates for weather lookups.",
		MIMEType:    "text/plain",
	}, static(citiesText))

	server.AddResource(&mcp.Resource{
		URI:         "weather://states",
		Name:        "get_state_codes",
		Description: "US state codes and full names for weather alerts.",
		MIMEType:    "text/plain",
	}, static(statesText))

	server.AddResource(&mcp.Resource{
		URI:         "weather://api-info",
		Name:        "get_api_info",
		Description: "Information about the National Weather Service API.",
		MIMEType:    "text/plain",
	}, static(weather.apiInfoText))
}

func citiesText() string {
	lines := []string{"Major US Cities (Name: Latitude, Longitude):"}
	for _, city := range majorCities {
		lines = append(lines, fmt.Sprintf("%s: %g, %g", city.Name, city.Latitude, city.Longitude))
	}
	return strings.Join(lines, "\n")
}

func statesText() string {
	lines := []string{"US State Codes (Code: Full Name):"}
	for _, state := range stateCodes {
		lines = append(lines, state[0]+": "+state[1])
	}
	return strings.Join(lines, "\n")
}

func (weather *weatherServer) apiInfoText() string {
	return fmt.Sprintf(`
National Weather Service API Information:

Base URL: %s
User Agent: %s

Available Endpoints:
- /alerts/active/area/{state} - Get active weather alerts for a state
- /points/{lat},{lon} - Get grid point data for coordinates
- /gridpoints/{office}/{gridX},{gridY}/forecast - Get forecast data

Usage Notes:
- All requests require a User-Agent header
- State codes should be 2-letter abbreviations (e.g., CA, NY)
- Coordinates should be within the United States
- API responses are in GeoJSON format

Last updated: %s
`, weather.nws.baseURL, userAgent, weather.now().Format(time.DateTime))
}

// promptTemplate is one prompt: its arguments, their defaults, and a
// function building the text from the completed arguments.
type promptTemplate struct {
	prompt   *mcp.Prompt
	defaults map[string]string
	text     func(arguments map[string]string) string
}

var promptTemplates = []promptTemplate{
	{
		prompt: &mcp.Prompt{
			Name:        "weather_report",
			Description: "Create a comprehensive weather report for a location.",
			Arguments: []*mcp.PromptArgument{
				{Name: "location", Description: "City name or 'latitude,longitude' coordinates", Required: true},
			},
		},
		text: func(arguments map[string]string) string {
			return fmt.Sprintf(`Please create a comprehensive weather report for %s.

Include the following:
1. Current weather alerts (if any)
2. Detailed forecast for the next few days
3. Any weather warnings or advisories
4. Summary of what people should expect and how to prepare

If the location is a city name, use the major cities resource to find coordinates. If it's a state, check for weather alerts first.
`, arguments["location"])
		},
	},
	{
		prompt: &mcp.Prompt{
			Name:        "severe_weather_analysis",
			Description: "Analyze severe weather conditions for a state.",
			Arguments: []*mcp.PromptArgument{
				{Name: "state", Description: "Two-letter US state code (e.g., CA, TX)", Required: true},
				{Name: "timeframe", Description: "Time period to analyze (default: today)"},
			},
		},
		defaults: map[string]string{"timeframe": "today"},
		text: func(arguments map[string]string) string {
			return fmt.Sprintf(`Please analyze the severe weather situation for %s for %s.

Provide:
1. All active weather alerts and their severity levels
2. Risk assessment for different types of severe weather
3. Recommendations for residents and travelers
4. Any emergency preparedness advice

Focus on the most critical threats and provide actionable guidance.
`, arguments["state"], arguments["timeframe"])
		},
	},
	{
		prompt: &mcp.Prompt{
			Name:        "travel_weather_advisory",
			Description: "Create a travel weather advisory between two locations.",
			Arguments: []*mcp.PromptArgument{
				{Name: "origin", Description: "Starting location (city name or coordinates)", Required: true},
				{Name: "destination", Description: "Destination location (city name or coordinates)", Required: true},
				{Name: "travel_date", Description: "When you plan to travel (default: today)"},
			},
		},
		defaults: map[string]string{"travel_date": "today"},
		text: func(arguments map[string]string) string {
			return fmt.Sprintf(`Please create a travel weather advisory for a trip from %s to %s on %s.

Include:
1. Weather conditions at origin and destination
2. Any weather alerts along the route
3. Travel recommendations (delays, route changes, etc.)
4. What travelers should pack or prepare for
5. Best timing for departure if weather is a concern

Use both weather forecasts and active alerts to provide comprehensive travel guidance.
`, arguments["origin"], arguments["destination"], arguments["travel_date"])
		},
	},
	{
		prompt: &mcp.Prompt{
			Name:        "emergency_weather_briefing",
			Description: "Create an emergency weather briefing for emergency responders.",
			Arguments: []*mcp.PromptArgument{
				{Name: "location", Description: "Location for the briefing (city, state, or coordinates)", Required: true},
			},
		},
		text: func(arguments map[string]string) string {
			return fmt.Sprintf(`Create an emergency weather briefing for %s for emergency response teams.

Provide:
1. IMMEDIATE weather threats and alerts
2. Timeline of expected weather changes
3. Areas of highest concern/vulnerability
4. Resource deployment recommendations
5. Communication priorities for the public

Format this as a professional emergency briefing with clear, actionable information for first responders and emergency managers.
`, arguments["location"])
		},
	},
}

func addPrompts(server *mcp.Server) {
	for _, template := range promptTemplates {
		server.AddPrompt(template.prompt, template.handler)
	}
}

// handler fills defaults, checks required arguments, and renders the
// template as one user message.
func (template promptTemplate) handler(_ context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	arguments := make(map[string]string, len(template.prompt.Arguments))
	var missing []string
	for _, argument := range template.prompt.Arguments {
		value := strings.TrimSpace(request.Params.Arguments[argument.Name])
		if value == "" {
			value = template.defaults[argument.Name]
		}
		if value == "" && argument.Required {
			missing = append(missing, argument.Name)
		}
		arguments[argument.Name] = value
	}
	if len(missing) > 0 {
		return nil, errors.New("missing required arguments: " + strings.Join(missing, ", "))
	}
	return &mcp.GetPromptResult{
		Description: template.prompt.Description,
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: template.text(arguments)},
		}},
	}, nil
}
