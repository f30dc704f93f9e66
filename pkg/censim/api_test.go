package censim

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"censim/internal/fasta"
	"censim/internal/sim"
	"censim/internal/stats"
)

func testParams() *sim.Params {
	p := sim.DefaultParams()
	p.MinSize = 5
	p.MaxSize = 500
	p.TargetSize = 50
	p.IndelSizeMean = 2
	return &p
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:     "memory",
		BenchmarksDir: t.TempDir(),
		ExportsDir:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Fatalf("close client: %v", err)
		}
	})
	return client
}

func TestRunPersistsAndWritesArtifacts(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		RunID:         "run-api",
		InitialSize:   50,
		Generations:   20,
		Seed:          42,
		TraceStep:     5,
		SnapshotFinal: true,
		Params:        testParams(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "run-api" {
		t.Fatalf("run id mismatch: got=%s", summary.RunID)
	}
	if summary.Seed != 42 || summary.InitialSize != 50 {
		t.Fatalf("request fields not echoed: %+v", summary)
	}
	if summary.Generations == 0 {
		t.Fatalf("expected at least one generation")
	}

	for _, file := range []string{"config.json", "summary.json", "history.csv", "array.fasta"} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, file)); err != nil {
			t.Fatalf("expected artifact %s: %v", file, err)
		}
	}

	runs, err := client.Runs(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-api" {
		t.Fatalf("expected stored run, got %+v", runs)
	}
	if runs[0].FinalLength != summary.FinalLength {
		t.Fatalf("stored final length mismatch: got=%d want=%d", runs[0].FinalLength, summary.FinalLength)
	}

	history, err := client.History(ctx, "run-api")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) == 0 {
		t.Fatalf("expected history records")
	}
	last := history[len(history)-1]
	if last.Generation != summary.Generations {
		t.Fatalf("last trace generation mismatch: got=%d want=%d", last.Generation, summary.Generations)
	}
	for i := 1; i < len(history); i++ {
		if history[i].Generation <= history[i-1].Generation {
			t.Fatalf("trace generations must increase: %d then %d", history[i-1].Generation, history[i].Generation)
		}
	}

	snapshot, err := client.Snapshot(ctx, "run-api")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Units) != summary.FinalLength {
		t.Fatalf("snapshot unit count mismatch: got=%d want=%d", len(snapshot.Units), summary.FinalLength)
	}
}

func TestRunSeededReproducible(t *testing.T) {
	ctx := context.Background()

	run := func() RunSummary {
		client := newTestClient(t)
		summary, err := client.Run(ctx, RunRequest{
			InitialSize: 40,
			Generations: 30,
			Seed:        7,
			Params:      testParams(),
		})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return summary
	}

	first := run()
	second := run()
	if first.FinalLength != second.FinalLength ||
		first.UniqueCount != second.UniqueCount ||
		first.Diversity != second.Diversity ||
		first.SNPCount != second.SNPCount ||
		first.DupCount != second.DupCount ||
		first.DelCount != second.DelCount {
		t.Fatalf("seeded runs diverged: first=%+v second=%+v", first, second)
	}
}

func TestRunCollapseRecorded(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	// All deletions, no floor guard: the array must vanish.
	p := sim.DefaultParams()
	p.BoundingEnabled = false
	p.MinSize = 0
	p.Elasticity = 0
	p.DupBias = 0
	p.IndelRate = 10
	p.IndelSizeMean = 3

	summary, err := client.Run(ctx, RunRequest{
		RunID:       "run-collapse",
		InitialSize: 20,
		Generations: 5000,
		Seed:        11,
		Params:      &p,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.Collapsed {
		t.Fatalf("expected collapsed run, got %+v", summary)
	}
	if summary.FinalLength != 0 {
		t.Fatalf("collapsed run should end empty, got length %d", summary.FinalLength)
	}
	if summary.Generations >= 5000 {
		t.Fatalf("expected early halt, ran %d generations", summary.Generations)
	}

	runs, err := client.Runs(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || !runs[0].Collapsed {
		t.Fatalf("expected stored collapsed run, got %+v", runs)
	}
}

func TestExportFASTA(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		RunID:         "run-fasta",
		InitialSize:   10,
		Generations:   5,
		Seed:          3,
		SnapshotFinal: true,
		Params:        testParams(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var buf bytes.Buffer
	if err := client.ExportFASTA(ctx, "run-fasta", &buf); err != nil {
		t.Fatalf("export fasta: %v", err)
	}
	if !strings.HasPrefix(buf.String(), ">repeat_0\n") {
		t.Fatalf("unexpected fasta header: %q", buf.String()[:20])
	}

	units, err := fasta.Read(&buf)
	if err != nil {
		t.Fatalf("read fasta back: %v", err)
	}
	if len(units) != summary.FinalLength {
		t.Fatalf("fasta unit count mismatch: got=%d want=%d", len(units), summary.FinalLength)
	}

	exported, err := client.Export(ctx, ExportRequest{RunID: "run-fasta"})
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, "array.fasta")); err != nil {
		t.Fatalf("expected exported fasta: %v", err)
	}
}

func TestExportFASTAWithoutSnapshot(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Run(ctx, RunRequest{
		RunID:       "run-nosnap",
		InitialSize: 10,
		Generations: 2,
		Seed:        3,
		Params:      testParams(),
	}); err != nil {
		t.Fatalf("run: %v", err)
	}

	var buf bytes.Buffer
	if err := client.ExportFASTA(ctx, "run-nosnap", &buf); err == nil {
		t.Fatalf("expected export without snapshot to fail")
	}
}

func TestExportArtifacts(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, runID := range []string{"run-old", "run-new"} {
		if _, err := client.Run(ctx, RunRequest{
			RunID:       runID,
			InitialSize: 10,
			Generations: 3,
			Seed:        5,
			Params:      testParams(),
		}); err != nil {
			t.Fatalf("run %s: %v", runID, err)
		}
	}

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export latest: %v", err)
	}
	if exported.RunID != "run-new" {
		t.Fatalf("latest export picked %s, want run-new", exported.RunID)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, "summary.json")); err != nil {
		t.Fatalf("expected exported summary: %v", err)
	}

	if _, err := client.Export(ctx, ExportRequest{RunID: "run-old", Latest: true}); err == nil {
		t.Fatalf("expected run id plus latest to fail")
	}
	if _, err := client.Export(ctx, ExportRequest{}); err == nil {
		t.Fatalf("expected export without selector to fail")
	}
}

func TestHistoryMissingRun(t *testing.T) {
	client := newTestClient(t)
	if _, err := client.History(context.Background(), "nope"); err == nil {
		t.Fatalf("expected missing history to fail")
	}
}

func TestBenchmarkWritesSummary(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Benchmark(ctx, BenchmarkRequest{
		InitialSize: 30,
		Generations: 50,
		Seed:        9,
		Params:      testParams(),
	})
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if summary.Generations == 0 {
		t.Fatalf("expected benchmark to advance generations")
	}
	if summary.MinLength > summary.MaxLength {
		t.Fatalf("length bounds inverted: %+v", summary)
	}
	if summary.ColorizePerS <= 0 {
		t.Fatalf("expected cold colorize rate, got %+v", summary)
	}
	if summary.ColorizeHitPerS <= 0 {
		t.Fatalf("expected cache-served colorize rate, got %+v", summary)
	}
	if summary.StepColorizePerS <= 0 {
		t.Fatalf("expected combined step-colorize rate, got %+v", summary)
	}

	stored, found, err := stats.ReadBenchmarkSummary(client.benchmarksDir, summary.RunID)
	if err != nil {
		t.Fatalf("read benchmark summary: %v", err)
	}
	if !found {
		t.Fatalf("expected benchmark summary on disk")
	}
	if stored.RunID != summary.RunID || stored.Generations != summary.Generations {
		t.Fatalf("stored benchmark mismatch: got=%+v want=%+v", stored, summary)
	}
}
