package remote

import (
	"math"

	"github.com/jortega/cuaderno/internal/models"
)

// Normalize walks a decoded JSON value tree and replaces every value
// the document store cannot represent with an explicit null: non-finite
// numbers (NaN, ±Inf) and untyped nils inside maps and lists. The walk
// recurses through nested maps and slices and returns a new tree; the
// input is not modified.
//
// It is a pure function, deliberately independent of any store client,
// and is applied at the serialization boundary before every upload.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil
		}
		return val
	default:
		return v
	}
}

// snapshotTree converts a snapshot into a generic value tree so that
// Normalize can scrub it before JSON encoding. encoding/json refuses
// non-finite floats outright, so the struct cannot be marshaled first.
func snapshotTree(s *models.Snapshot) map[string]any {
	students := make([]any, len(s.Students))
	for i, st := range s.Students {
		entry := map[string]any{
			"name":       st.Name,
			"amount":     st.Amount,
			"active":     st.Active,
			"attendance": string(st.Attendance),
		}
		if st.Days != 0 {
			entry["days"] = float64(st.Days)
		}
		students[i] = entry
	}

	payees := make([]any, len(s.Config.Payees))
	for i, p := range s.Config.Payees {
		payees[i] = map[string]any{
			"name":  p.Name,
			"share": p.Share,
		}
	}

	return map[string]any{
		"students": students,
		"config": map[string]any{
			"payees":          payees,
			"useManualShares": s.Config.UseManualShares,
			"preset":          float64(s.Config.Preset),
		},
		"lastUpdated": float64(s.LastUpdated),
	}
}
