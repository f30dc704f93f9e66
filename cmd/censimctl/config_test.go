package main

import (
	"os"
	"path/filepath"
	"testing"

	"censim/internal/dist"
	"censim/internal/sim"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunConfigFull(t *testing.T) {
	path := writeConfig(t, `{
		"run_id": "cfg-run",
		"initial_size": 2000,
		"generations": 500,
		"seed": 99,
		"trace_step": 25,
		"snapshot_final": true,
		"snp_rate": 0.2,
		"indel_rate": 0.8,
		"indel_size_mean": 3.5,
		"min_size": 100,
		"max_size": 8000,
		"bounding_enabled": false,
		"target_size": 4000,
		"elasticity": 0.05,
		"dup_bias": 0.6,
		"count_distribution": "negative-binomial",
		"size_distribution": "power-law",
		"nb_dispersion": 5,
		"power_law_alpha": 3.0
	}`)

	req, params, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if req.RunID != "cfg-run" || req.InitialSize != 2000 || req.Generations != 500 {
		t.Fatalf("request fields mismatch: %+v", req)
	}
	if req.Seed != 99 || req.TraceStep != 25 || !req.SnapshotFinal {
		t.Fatalf("request fields mismatch: %+v", req)
	}
	if params.SNPRate != 0.2 || params.IndelRate != 0.8 || params.IndelSizeMean != 3.5 {
		t.Fatalf("rate fields mismatch: %+v", params)
	}
	if params.MinSize != 100 || params.MaxSize != 8000 || params.BoundingEnabled {
		t.Fatalf("bound fields mismatch: %+v", params)
	}
	if params.TargetSize != 4000 || params.Elasticity != 0.05 || params.DupBias != 0.6 {
		t.Fatalf("elastic fields mismatch: %+v", params)
	}
	if params.CountDist != dist.CountNegativeBinomial || params.SizeDist != dist.SizePowerLaw {
		t.Fatalf("distribution fields mismatch: %+v", params)
	}
	if params.NBDispersion != 5 || params.PowerLawAlpha != 3.0 {
		t.Fatalf("distribution params mismatch: %+v", params)
	}
}

func TestLoadRunConfigPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"initial_size": 123, "snp_rate": 0.9}`)

	req, params, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if req.InitialSize != 123 {
		t.Fatalf("initial size mismatch: %+v", req)
	}
	if params.SNPRate != 0.9 {
		t.Fatalf("snp rate mismatch: %+v", params)
	}

	defaults := sim.DefaultParams()
	if params.IndelRate != defaults.IndelRate || params.MinSize != defaults.MinSize {
		t.Fatalf("unset fields should keep defaults: got=%+v want=%+v", params, defaults)
	}
	if params.CountDist != defaults.CountDist || params.SizeDist != defaults.SizeDist {
		t.Fatalf("unset distributions should keep defaults: %+v", params)
	}
}

func TestLoadRunConfigUnknownKeysIgnored(t *testing.T) {
	path := writeConfig(t, `{"generations": 7, "mystery_knob": true}`)

	req, _, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if req.Generations != 7 {
		t.Fatalf("generations mismatch: %+v", req)
	}
}

func TestLoadRunConfigBadDistribution(t *testing.T) {
	path := writeConfig(t, `{"size_distribution": "bogus"}`)

	if _, _, err := loadRunConfig(path); err == nil {
		t.Fatalf("expected unknown distribution to fail")
	}
}

func TestLoadOrDefaultRunConfigEmptyPath(t *testing.T) {
	req, params, err := loadOrDefaultRunConfig("")
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}
	if req.RunID != "" || req.InitialSize != 0 {
		t.Fatalf("expected zero request, got %+v", req)
	}
	if params != sim.DefaultParams() {
		t.Fatalf("expected default params, got %+v", params)
	}
}

func TestOverrideFromFlags(t *testing.T) {
	req, params, err := loadOrDefaultRunConfig("")
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}

	set := map[string]bool{"gens": true, "dup-bias": true, "size-dist": true}
	err = overrideFromFlags(&req, &params, set, map[string]any{
		"gens":      250,
		"dup-bias":  0.7,
		"size-dist": "geometric",
		"snp-rate":  0.9,
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}

	if req.Generations != 250 {
		t.Fatalf("generations override mismatch: %+v", req)
	}
	if params.DupBias != 0.7 || params.SizeDist != dist.SizeGeometric {
		t.Fatalf("params override mismatch: %+v", params)
	}
	if params.SNPRate != sim.DefaultParams().SNPRate {
		t.Fatalf("unset flag must not override: %+v", params)
	}
}
