// Package providers exposes the hub's logging, metrics, tracing, and
// system-monitoring operations as named tools behind the provider
// registry. Providers translate loosely-typed tool params into hub
// calls; all semantics live in the stores.
package providers

import "github.com/toolscope/toolscope/internal/types"

// Helper functions
func success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

func failure(message string) (*types.Result, error) {
	errMsg := message
	return &types.Result{Success: false, Error: &errMsg}, nil
}

// resultFrom converts a hub query result into a provider result. Hub
// queries signal not-found by carrying an "error" key.
func resultFrom(data map[string]interface{}) (*types.Result, error) {
	if msg, ok := data["error"].(string); ok {
		return failure(msg)
	}
	return success(data)
}

func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

func getFloat64(m map[string]interface{}, key string) float64 {
	switch val := m[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	}
	return 0
}

func getInt(m map[string]interface{}, key string) int {
	return int(getFloat64(m, key))
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if val, ok := m[key].(map[string]interface{}); ok {
		return val
	}
	return nil
}

func getStringMap(m map[string]interface{}, key string) map[string]string {
	raw := getMap(m, key)
	if raw == nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func getStringSlice(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
