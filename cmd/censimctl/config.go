package main

import (
	"encoding/json"
	"fmt"
	"os"

	"censim/internal/dist"
	"censim/internal/sim"
	"censim/pkg/censim"
)

// loadRunConfig reads a run config JSON file. Unknown keys are ignored and
// values are decoded tolerantly (JSON numbers serve ints and floats alike).
// Param fields start from the stock defaults.
func loadRunConfig(path string) (censim.RunRequest, sim.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return censim.RunRequest{}, sim.Params{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return censim.RunRequest{}, sim.Params{}, err
	}

	var req censim.RunRequest
	params := sim.DefaultParams()

	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asInt(raw["initial_size"]); ok {
		req.InitialSize = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt(raw["seed"]); ok {
		req.Seed = uint32(v)
	}
	if v, ok := asInt(raw["trace_step"]); ok {
		req.TraceStep = v
	}
	if v, ok := asBool(raw["snapshot_final"]); ok {
		req.SnapshotFinal = v
	}

	if v, ok := asFloat64(raw["snp_rate"]); ok {
		params.SNPRate = v
	}
	if v, ok := asFloat64(raw["indel_rate"]); ok {
		params.IndelRate = v
	}
	if v, ok := asFloat64(raw["indel_size_mean"]); ok {
		params.IndelSizeMean = v
	}
	if v, ok := asInt(raw["min_size"]); ok {
		params.MinSize = v
	}
	if v, ok := asInt(raw["max_size"]); ok {
		params.MaxSize = v
	}
	if v, ok := asBool(raw["bounding_enabled"]); ok {
		params.BoundingEnabled = v
	}
	if v, ok := asInt(raw["target_size"]); ok {
		params.TargetSize = v
	}
	if v, ok := asFloat64(raw["elasticity"]); ok {
		params.Elasticity = v
	}
	if v, ok := asFloat64(raw["dup_bias"]); ok {
		params.DupBias = v
	}
	if v, ok := asString(raw["count_distribution"]); ok {
		d, err := dist.ParseCountDistribution(v)
		if err != nil {
			return censim.RunRequest{}, sim.Params{}, err
		}
		params.CountDist = d
	}
	if v, ok := asString(raw["size_distribution"]); ok {
		d, err := dist.ParseSizeDistribution(v)
		if err != nil {
			return censim.RunRequest{}, sim.Params{}, err
		}
		params.SizeDist = d
	}
	if v, ok := asFloat64(raw["nb_dispersion"]); ok {
		params.NBDispersion = v
	}
	if v, ok := asFloat64(raw["power_law_alpha"]); ok {
		params.PowerLawAlpha = v
	}

	return req, params, nil
}

func loadOrDefaultRunConfig(path string) (censim.RunRequest, sim.Params, error) {
	if path == "" {
		return censim.RunRequest{}, sim.DefaultParams(), nil
	}
	req, params, err := loadRunConfig(path)
	if err != nil {
		return censim.RunRequest{}, sim.Params{}, fmt.Errorf("load config: %w", err)
	}
	return req, params, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
