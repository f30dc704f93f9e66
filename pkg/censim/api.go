// Package censim is the embedding API for the repeat array simulator. It
// wires the simulation engine to a store and an artifacts directory so that
// callers (the CLI, tests, other programs) drive runs through one surface.
package censim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"censim/internal/colorizer"
	"censim/internal/fasta"
	"censim/internal/model"
	"censim/internal/repeat"
	"censim/internal/sim"
	"censim/internal/stats"
	"censim/internal/storage"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "censim.db"

	defaultGenerations = 100
	defaultTraceStep   = 10
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
}

type Client struct {
	store storage.Store

	benchmarksDir string
	exportsDir    string

	mu          sync.Mutex
	initialized bool
}

type RunRequest struct {
	// RunID identifies the run; empty means a fresh UUID.
	RunID       string
	InitialSize int
	Generations int
	// Seed 0 means seed from the clock.
	Seed      uint32
	TraceStep int
	// SnapshotFinal persists the full final array, enabling FASTA export.
	SnapshotFinal bool
	// Params overrides the stock parameter set when non-nil.
	Params *sim.Params
}

type RunSummary struct {
	RunID        string
	ArtifactsDir string
	Seed         uint32
	InitialSize  int
	Generations  int
	FinalLength  int
	UniqueCount  int
	Diversity    float64
	SNPCount     int
	DupCount     int
	DelCount     int
	Collapsed    bool
	Elapsed      time.Duration
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type BenchmarkRequest struct {
	InitialSize int
	Generations int
	Seed        uint32
	Params      *sim.Params
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) ensureInit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Run executes a headless simulation, persists its summary, trace, and
// optional snapshot, and writes run artifacts under the benchmarks dir.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.InitialSize <= 0 {
		req.InitialSize = sim.DefaultInitialSize
	}
	if req.Generations <= 0 {
		req.Generations = defaultGenerations
	}
	if req.TraceStep <= 0 {
		req.TraceStep = defaultTraceStep
	}
	if req.Seed == 0 {
		req.Seed = uint32(time.Now().UnixNano())
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if err := c.ensureInit(ctx); err != nil {
		return RunSummary{}, err
	}

	start := time.Now()
	s := sim.NewSeeded(req.InitialSize, req.Seed)
	params := s.Params()
	if req.Params != nil {
		params = *req.Params
		s.SetParams(params)
	}

	history := make([]model.GenerationRecord, 0, req.Generations/req.TraceStep+1)
	for g := 0; g < req.Generations; g++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}
		s.Step()
		st := s.Stats()
		if st.Generation%req.TraceStep == 0 || st.Generation == req.Generations || st.Collapsed {
			history = append(history, generationRecord(s))
		}
		if st.Collapsed {
			break
		}
	}
	elapsed := time.Since(start)

	st := s.Stats()
	now := time.Now().UTC()
	run := model.RunRecord{
		VersionedRecord: versioned(),
		ID:              req.RunID,
		Seed:            req.Seed,
		InitialSize:     req.InitialSize,
		Generations:     st.Generation,
		FinalLength:     s.Array().Len(),
		UniqueCount:     s.CountUnique(),
		Diversity:       s.Diversity(),
		SNPCount:        st.SNPCount,
		DupCount:        st.DupCount,
		DelCount:        st.DelCount,
		Collapsed:       st.Collapsed,
		CreatedAt:       now,
	}

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveHistory(ctx, req.RunID, history); err != nil {
		return RunSummary{}, err
	}
	if req.SnapshotFinal {
		snapshot := model.ArraySnapshot{
			VersionedRecord: versioned(),
			RunID:           req.RunID,
			Generation:      st.Generation,
			Units:           unitStrings(s.Array()),
		}
		if err := c.store.SaveSnapshot(ctx, snapshot); err != nil {
			return RunSummary{}, err
		}
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config:  runConfig(req, params, now),
		Summary: run,
		History: history,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if req.SnapshotFinal {
		if err := writeFASTAFile(filepath.Join(runDir, "array.fasta"), s.Array().Units()); err != nil {
			return RunSummary{}, err
		}
	}
	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:        req.RunID,
		Seed:         req.Seed,
		InitialSize:  req.InitialSize,
		Generations:  st.Generation,
		FinalLength:  run.FinalLength,
		Diversity:    run.Diversity,
		Collapsed:    run.Collapsed,
		CreatedAtUTC: now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:        req.RunID,
		ArtifactsDir: filepath.Clean(runDir),
		Seed:         req.Seed,
		InitialSize:  req.InitialSize,
		Generations:  st.Generation,
		FinalLength:  run.FinalLength,
		UniqueCount:  run.UniqueCount,
		Diversity:    run.Diversity,
		SNPCount:     run.SNPCount,
		DupCount:     run.DupCount,
		DelCount:     run.DelCount,
		Collapsed:    run.Collapsed,
		Elapsed:      elapsed,
	}, nil
}

// Runs lists stored run summaries, newest first.
func (c *Client) Runs(ctx context.Context) ([]model.RunRecord, error) {
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	return c.store.ListRuns(ctx)
}

// History returns a run's per-generation trace.
func (c *Client) History(ctx context.Context, runID string) ([]model.GenerationRecord, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("history not found for run id: %s", runID)
	}
	return history, nil
}

// Snapshot returns a run's stored final array.
func (c *Client) Snapshot(ctx context.Context, runID string) (model.ArraySnapshot, error) {
	if runID == "" {
		return model.ArraySnapshot{}, errors.New("run id is required")
	}
	if err := c.ensureInit(ctx); err != nil {
		return model.ArraySnapshot{}, err
	}
	snapshot, ok, err := c.store.GetSnapshot(ctx, runID)
	if err != nil {
		return model.ArraySnapshot{}, err
	}
	if !ok {
		return model.ArraySnapshot{}, fmt.Errorf("snapshot not found for run id: %s", runID)
	}
	return snapshot, nil
}

// ExportFASTA writes a run's stored final array to w in FASTA format. The
// run must have been executed with SnapshotFinal.
func (c *Client) ExportFASTA(ctx context.Context, runID string, w io.Writer) error {
	snapshot, err := c.Snapshot(ctx, runID)
	if err != nil {
		return err
	}
	units := make([]repeat.Unit, 0, len(snapshot.Units))
	for _, seq := range snapshot.Units {
		unit, err := repeat.UnitFromString(seq)
		if err != nil {
			return err
		}
		units = append(units, unit)
	}
	return fasta.Write(w, units)
}

// Export copies a run's artifact files out of the benchmarks dir.
func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Benchmark runs timed throughput passes without touching the store and
// writes the summary under the benchmarks dir: raw stepping, cold and
// cache-served colorization of the full array, and a combined
// step-plus-colorize pass.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (stats.BenchmarkSummary, error) {
	if req.InitialSize <= 0 {
		req.InitialSize = sim.DefaultInitialSize
	}
	if req.Generations <= 0 {
		req.Generations = defaultGenerations
	}
	if req.Seed == 0 {
		req.Seed = uint32(time.Now().UnixNano())
	}

	s := sim.NewSeeded(req.InitialSize, req.Seed)
	if req.Params != nil {
		s.SetParams(*req.Params)
	}

	minLength := s.Array().Len()
	maxLength := minLength
	lengthSum := 0
	start := time.Now()
	for g := 0; g < req.Generations; g++ {
		if err := ctx.Err(); err != nil {
			return stats.BenchmarkSummary{}, err
		}
		s.Step()
		length := s.Array().Len()
		lengthSum += length
		if length < minLength {
			minLength = length
		}
		if length > maxLength {
			maxLength = length
		}
		if s.Collapsed() {
			break
		}
	}
	elapsed := time.Since(start)

	st := s.Stats()
	finalLength := s.Array().Len()
	finalDiversity := s.Diversity()
	perSecond := 0.0
	if elapsed > 0 && st.Generation > 0 {
		perSecond = float64(st.Generation) / elapsed.Seconds()
	}
	meanLength := 0.0
	if st.Generation > 0 {
		meanLength = float64(lengthSum) / float64(st.Generation)
	}

	colorizePerS, colorizeHitPerS := benchmarkColorize(s.Array(), req.Seed)
	stepColorizePerS := benchmarkStepColorize(s, req.Seed)

	now := time.Now().UTC()
	runID := fmt.Sprintf("bench-%d-%d", req.Seed, now.Unix())
	summary := stats.BenchmarkSummary{
		RunID:            runID,
		Seed:             req.Seed,
		InitialSize:      req.InitialSize,
		Generations:      st.Generation,
		FinalLength:      finalLength,
		FinalDiversity:   finalDiversity,
		MeanLength:       meanLength,
		MaxLength:        maxLength,
		MinLength:        minLength,
		Collapsed:        st.Collapsed,
		GenerationsPerS:  perSecond,
		ColorizePerS:     colorizePerS,
		ColorizeHitPerS:  colorizeHitPerS,
		StepColorizePerS: stepColorizePerS,
		ElapsedMS:        elapsed.Milliseconds(),
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:        runID,
			Seed:         req.Seed,
			InitialSize:  req.InitialSize,
			Generations:  req.Generations,
			CreatedAtUTC: now.Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return stats.BenchmarkSummary{}, err
	}
	if err := stats.WriteBenchmarkSummary(runDir, summary); err != nil {
		return stats.BenchmarkSummary{}, err
	}
	return summary, nil
}

// benchCombinedFrames bounds the combined step-plus-colorize phase.
const benchCombinedFrames = 20

// benchmarkColorize times a cold colorize pass over the whole array and a
// second cache-served pass, returning sequences per second for each.
func benchmarkColorize(a *repeat.Array, seed uint32) (cold, cached float64) {
	n := a.Len()
	if n == 0 {
		return 0, 0
	}
	col := colorizer.New(seed)

	start := time.Now()
	for i := 0; i < n; i++ {
		col.Color(a.At(i))
	}
	if elapsed := time.Since(start); elapsed > 0 {
		cold = float64(n) / elapsed.Seconds()
	}

	start = time.Now()
	for i := 0; i < n; i++ {
		col.Color(a.At(i))
	}
	if elapsed := time.Since(start); elapsed > 0 {
		cached = float64(n) / elapsed.Seconds()
	}
	return cold, cached
}

// benchmarkStepColorize advances the simulation further, colorizing the
// whole array after every step, and returns frames per second.
func benchmarkStepColorize(s *sim.Simulation, seed uint32) float64 {
	if s.Collapsed() || s.Array().Len() == 0 {
		return 0
	}
	col := colorizer.New(seed)
	frames := 0
	start := time.Now()
	for f := 0; f < benchCombinedFrames; f++ {
		if s.Collapsed() {
			break
		}
		s.Step()
		a := s.Array()
		for i := 0; i < a.Len(); i++ {
			col.Color(a.At(i))
		}
		frames++
	}
	elapsed := time.Since(start)
	if frames == 0 || elapsed <= 0 {
		return 0
	}
	return float64(frames) / elapsed.Seconds()
}

func generationRecord(s *sim.Simulation) model.GenerationRecord {
	st := s.Stats()
	return model.GenerationRecord{
		Generation: st.Generation,
		Length:     s.Array().Len(),
		Unique:     s.CountUnique(),
		Diversity:  s.Diversity(),
		SNPCount:   st.SNPCount,
		DupCount:   st.DupCount,
		DelCount:   st.DelCount,
		Collapsed:  st.Collapsed,
	}
}

func writeFASTAFile(path string, units []repeat.Unit) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fasta.Write(file, units); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func unitStrings(a *repeat.Array) []string {
	out := make([]string, a.Len())
	for i := 0; i < a.Len(); i++ {
		out[i] = a.Unit(i).String()
	}
	return out
}

func runConfig(req RunRequest, params sim.Params, now time.Time) stats.RunConfig {
	return stats.RunConfig{
		RunID:             req.RunID,
		Seed:              req.Seed,
		InitialSize:       req.InitialSize,
		Generations:       req.Generations,
		TraceStep:         req.TraceStep,
		SNPRate:           params.SNPRate,
		IndelRate:         params.IndelRate,
		IndelSizeMean:     params.IndelSizeMean,
		MinSize:           params.MinSize,
		MaxSize:           params.MaxSize,
		BoundingEnabled:   params.BoundingEnabled,
		TargetSize:        params.TargetSize,
		Elasticity:        params.Elasticity,
		DupBias:           params.DupBias,
		CountDistribution: params.CountDist.String(),
		SizeDistribution:  params.SizeDist.String(),
		NBDispersion:      params.NBDispersion,
		PowerLawAlpha:     params.PowerLawAlpha,
		CreatedAtUTC:      now.Format(time.RFC3339Nano),
	}
}

func versioned() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}
