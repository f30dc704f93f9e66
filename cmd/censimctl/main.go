// Command censimctl drives headless repeat array simulations: running them,
// listing and exporting finished runs, and benchmarking throughput.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"censim/internal/colorizer"
	"censim/internal/dist"
	"censim/internal/repeat"
	"censim/internal/sim"
	"censim/internal/stats"
	"censim/internal/storage"
	"censim/pkg/censim"
)

const (
	benchmarksDir = "benchmarks"
	exportsDir    = "exports"
	defaultDBPath = "censim.db"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "snapshot":
		return runSnapshot(ctx, args[1:])
	case "benchmark":
		return runBenchmark(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	initialSize := fs.Int("size", sim.DefaultInitialSize, "initial array size in repeat units")
	generations := fs.Int("gens", 100, "generation count")
	seed := fs.Uint("seed", 0, "rng seed (0 seeds from the clock)")
	traceStep := fs.Int("trace-step", 10, "history capture cadence in generations")
	snapshotFinal := fs.Bool("snapshot", false, "persist the full final array (enables fasta export)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	snpRate := fs.Float64("snp-rate", 0.1, "mean SNP events per generation")
	indelRate := fs.Float64("indel-rate", 0.5, "mean indel events per generation")
	indelSizeMean := fs.Float64("indel-size-mean", 7.6, "mean indel size in repeat units")
	minSize := fs.Int("min-size", 300, "hard lower bound in repeat units")
	maxSize := fs.Int("max-size", 50000, "hard upper bound in repeat units")
	bounding := fs.Bool("bounding", true, "enforce the hard size bounds")
	targetSize := fs.Int("target-size", 10000, "elastic bounding target in repeat units")
	elasticity := fs.Float64("elasticity", 0.1, "elastic bounding strength (0 disables)")
	dupBias := fs.Float64("dup-bias", 0.5, "base duplication probability")
	countDistName := fs.String("count-dist", "poisson", "event count distribution: poisson|negative-binomial")
	sizeDistName := fs.String("size-dist", "poisson", "indel size distribution: poisson|geometric|power-law")
	nbDispersion := fs.Float64("nb-dispersion", 10, "negative binomial dispersion r")
	powerLawAlpha := fs.Float64("power-law-alpha", 2.5, "power law shape alpha")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, params, err := loadOrDefaultRunConfig(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		countDist, err := dist.ParseCountDistribution(*countDistName)
		if err != nil {
			return err
		}
		sizeDist, err := dist.ParseSizeDistribution(*sizeDistName)
		if err != nil {
			return err
		}
		req = censim.RunRequest{
			RunID:         *runID,
			InitialSize:   *initialSize,
			Generations:   *generations,
			Seed:          uint32(*seed),
			TraceStep:     *traceStep,
			SnapshotFinal: *snapshotFinal,
		}
		params = sim.Params{
			SNPRate:         *snpRate,
			IndelRate:       *indelRate,
			IndelSizeMean:   *indelSizeMean,
			MinSize:         *minSize,
			MaxSize:         *maxSize,
			BoundingEnabled: *bounding,
			TargetSize:      *targetSize,
			Elasticity:      *elasticity,
			DupBias:         *dupBias,
			CountDist:       countDist,
			SizeDist:        sizeDist,
			NBDispersion:    *nbDispersion,
			PowerLawAlpha:   *powerLawAlpha,
		}
	} else {
		err := overrideFromFlags(&req, &params, setFlags, map[string]any{
			"run-id":          *runID,
			"size":            *initialSize,
			"gens":            *generations,
			"seed":            *seed,
			"trace-step":      *traceStep,
			"snapshot":        *snapshotFinal,
			"snp-rate":        *snpRate,
			"indel-rate":      *indelRate,
			"indel-size-mean": *indelSizeMean,
			"min-size":        *minSize,
			"max-size":        *maxSize,
			"bounding":        *bounding,
			"target-size":     *targetSize,
			"elasticity":      *elasticity,
			"dup-bias":        *dupBias,
			"count-dist":      *countDistName,
			"size-dist":       *sizeDistName,
			"nb-dispersion":   *nbDispersion,
			"power-law-alpha": *powerLawAlpha,
		})
		if err != nil {
			return err
		}
	}

	client, err := censim.New(censim.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req.Params = &params
	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s seed=%d gens=%d elapsed=%s\n", summary.RunID, summary.Seed, summary.Generations, summary.Elapsed)
	fmt.Printf("final_length=%s units (%s bp) unique=%s diversity=%.4f\n",
		humanize.Comma(int64(summary.FinalLength)),
		humanize.Comma(int64(summary.FinalLength)*int64(repeat.UnitSize)),
		humanize.Comma(int64(summary.UniqueCount)),
		summary.Diversity,
	)
	fmt.Printf("snps=%s dups=%s dels=%s collapsed=%t\n",
		humanize.Comma(int64(summary.SNPCount)),
		humanize.Comma(int64(summary.DupCount)),
		humanize.Comma(int64(summary.DelCount)),
		summary.Collapsed,
	)
	fmt.Printf("artifacts_dir=%s\n", summary.ArtifactsDir)
	return nil
}

func overrideFromFlags(req *censim.RunRequest, params *sim.Params, set map[string]bool, value map[string]any) error {
	for name := range set {
		v, ok := value[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "size":
			req.InitialSize = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "seed":
			req.Seed = uint32(v.(uint))
		case "trace-step":
			req.TraceStep = v.(int)
		case "snapshot":
			req.SnapshotFinal = v.(bool)
		case "snp-rate":
			params.SNPRate = v.(float64)
		case "indel-rate":
			params.IndelRate = v.(float64)
		case "indel-size-mean":
			params.IndelSizeMean = v.(float64)
		case "min-size":
			params.MinSize = v.(int)
		case "max-size":
			params.MaxSize = v.(int)
		case "bounding":
			params.BoundingEnabled = v.(bool)
		case "target-size":
			params.TargetSize = v.(int)
		case "elasticity":
			params.Elasticity = v.(float64)
		case "dup-bias":
			params.DupBias = v.(float64)
		case "count-dist":
			d, err := dist.ParseCountDistribution(v.(string))
			if err != nil {
				return err
			}
			params.CountDist = d
		case "size-dist":
			d, err := dist.ParseSizeDistribution(v.(string))
			if err != nil {
				return err
			}
			params.SizeDist = d
		case "nb-dispersion":
			params.NBDispersion = v.(float64)
		case "power-law-alpha":
			params.PowerLawAlpha = v.(float64)
		}
	}
	return nil
}

func runRuns(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	entries, err := stats.ListRunIndex(benchmarksDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if len(entries) > *limit {
		entries = entries[:*limit]
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Printf("run_id=%s created=%s seed=%d size=%s gens=%d final=%s diversity=%.4f collapsed=%t\n",
			e.RunID,
			e.CreatedAtUTC,
			e.Seed,
			humanize.Comma(int64(e.InitialSize)),
			e.Generations,
			humanize.Comma(int64(e.FinalLength)),
			e.Diversity,
			e.Collapsed,
		)
	}
	return nil
}

func runHistory(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run from the run index")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resolvedID, err := resolveRunID(*runID, *latest)
	if err != nil {
		return err
	}

	history, found, err := stats.ReadHistoryCSV(benchmarksDir, resolvedID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("history not found for run id: %s", resolvedID)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for _, rec := range history {
		fmt.Printf("generation=%d length=%s unique=%s diversity=%.4f snps=%d dups=%d dels=%d collapsed=%t\n",
			rec.Generation,
			humanize.Comma(int64(rec.Length)),
			humanize.Comma(int64(rec.Unique)),
			rec.Diversity,
			rec.SNPCount,
			rec.DupCount,
			rec.DelCount,
			rec.Collapsed,
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from the run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := censim.New(censim.Options{
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, censim.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runSnapshot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	outPath := fs.String("out", "", "output path (default stdout)")
	colors := fs.Bool("colors", false, "emit one hex color per unit instead of FASTA")
	colorSeed := fs.Uint("color-seed", 1, "colorizer rng seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("snapshot requires --run-id")
	}

	client, err := censim.New(censim.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	out := os.Stdout
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	if *colors {
		snapshot, err := client.Snapshot(ctx, *runID)
		if err != nil {
			return err
		}
		col := colorizer.New(uint32(*colorSeed))
		for i, seq := range snapshot.Units {
			unit, err := repeat.UnitFromString(seq)
			if err != nil {
				return err
			}
			c := col.Color(&unit)
			fmt.Fprintf(out, "repeat_%d #%02X%02X%02X\n", i, c.R, c.G, c.B)
		}
	} else if err := client.ExportFASTA(ctx, *runID, out); err != nil {
		return err
	}
	if *outPath != "" {
		fmt.Printf("wrote snapshot run_id=%s to=%s\n", *runID, filepath.Clean(*outPath))
	}
	return nil
}

func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	initialSize := fs.Int("size", sim.DefaultInitialSize, "initial array size in repeat units")
	generations := fs.Int("gens", 1000, "generation count")
	seed := fs.Uint("seed", 0, "rng seed (0 seeds from the clock)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := censim.New(censim.Options{
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Benchmark(ctx, censim.BenchmarkRequest{
		InitialSize: *initialSize,
		Generations: *generations,
		Seed:        uint32(*seed),
	})
	if err != nil {
		return err
	}

	fmt.Printf("benchmark run_id=%s seed=%d gens=%d elapsed_ms=%d\n", summary.RunID, summary.Seed, summary.Generations, summary.ElapsedMS)
	fmt.Printf("throughput=%.1f gens/s final_length=%s mean_length=%.1f min=%s max=%s collapsed=%t\n",
		summary.GenerationsPerS,
		humanize.Comma(int64(summary.FinalLength)),
		summary.MeanLength,
		humanize.Comma(int64(summary.MinLength)),
		humanize.Comma(int64(summary.MaxLength)),
		summary.Collapsed,
	)
	fmt.Printf("colorize=%.0f seqs/s cached=%.0f seqs/s step_colorize=%.1f frames/s\n",
		summary.ColorizePerS,
		summary.ColorizeHitPerS,
		summary.StepColorizePerS,
	)
	return nil
}

func resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either --run-id or --latest, not both")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("a run id or --latest is required")
	}
	entries, err := stats.ListRunIndex(benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: censimctl <run|runs|history|export|snapshot|benchmark> [flags]", msg)
}
