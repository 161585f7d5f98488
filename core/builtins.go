package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultWeatherEndpoint = "https://api.open-meteo.com"

type setMemoryParams struct {
	Key   string `json:"key" jsonschema:"description=The memory key, always lowercase and snake_case"`
	Value string `json:"value" jsonschema:"description=The value to remember, can be anything"`
}

// setMemoryTool saves a key/value pair to session memory. The update callback
// receives a snapshot of the full store after the write.
func setMemoryTool(memory *memoryStore, onUpdate func(map[string]string)) Tool {
	return NewTool("set_memory", "Saves important data about the user into memory.",
		func(ctx context.Context, params setMemoryParams) (any, error) {
			memory.Set(params.Key, params.Value)
			if onUpdate != nil {
				onUpdate(memory.Snapshot())
			}
			return map[string]any{"ok": true}, nil
		})
}

type getWeatherParams struct {
	Lat      float64 `json:"lat" jsonschema:"description=Latitude of the location"`
	Lng      float64 `json:"lng" jsonschema:"description=Longitude of the location"`
	Location string  `json:"location" jsonschema:"description=Name of the location"`
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
	CurrentUnits struct {
		Temperature string `json:"temperature_2m"`
		WindSpeed   string `json:"wind_speed_10m"`
	} `json:"current_units"`
}

// getWeatherTool fetches current conditions from the forecast endpoint. The
// marker's coordinates update before the request goes out, so the location
// pin moves even when the fetch fails; the readings only land on success.
func getWeatherTool(endpoint string, applyPatch func(MarkerPatch) Marker) Tool {
	if endpoint == "" {
		endpoint = defaultWeatherEndpoint
	}
	client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	return NewTool("get_weather",
		"Retrieves the weather for a given lat, lng coordinate pair. Specify a label for the location.",
		func(ctx context.Context, params getWeatherParams) (any, error) {
			applyPatch(MarkerPatch{
				Lat:      &params.Lat,
				Lng:      &params.Lng,
				Location: &params.Location,
			})

			url := fmt.Sprintf(
				"%s/v1/forecast?latitude=%f&longitude=%f&current=temperature_2m,wind_speed_10m",
				endpoint, params.Lat, params.Lng)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, fmt.Errorf("building forecast request: %w", err)
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("fetching forecast: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("forecast endpoint responded with %s", resp.Status)
			}

			var forecast forecastResponse
			if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
				return nil, fmt.Errorf("decoding forecast: %w", err)
			}

			marker := applyPatch(MarkerPatch{
				Temperature: &Reading{
					Value: forecast.Current.Temperature,
					Units: forecast.CurrentUnits.Temperature,
				},
				WindSpeed: &Reading{
					Value: forecast.Current.WindSpeed,
					Units: forecast.CurrentUnits.WindSpeed,
				},
			})
			return marker, nil
		})
}
