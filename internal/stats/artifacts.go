package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"censim/internal/model"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID             string  `json:"run_id"`
	Seed              uint32  `json:"seed"`
	InitialSize       int     `json:"initial_size"`
	Generations       int     `json:"generations"`
	TraceStep         int     `json:"trace_step"`
	SNPRate           float64 `json:"snp_rate"`
	IndelRate         float64 `json:"indel_rate"`
	IndelSizeMean     float64 `json:"indel_size_mean"`
	MinSize           int     `json:"min_size"`
	MaxSize           int     `json:"max_size"`
	BoundingEnabled   bool    `json:"bounding_enabled"`
	TargetSize        int     `json:"target_size"`
	Elasticity        float64 `json:"elasticity"`
	DupBias           float64 `json:"dup_bias"`
	CountDistribution string  `json:"count_distribution"`
	SizeDistribution  string  `json:"size_distribution"`
	NBDispersion      float64 `json:"nb_dispersion"`
	PowerLawAlpha     float64 `json:"power_law_alpha"`
	CreatedAtUTC      string  `json:"created_at_utc"`
}

type RunArtifacts struct {
	Config  RunConfig                `json:"config"`
	Summary model.RunRecord          `json:"summary"`
	History []model.GenerationRecord `json:"history,omitempty"`
}

type BenchmarkSummary struct {
	RunID            string  `json:"run_id"`
	Seed             uint32  `json:"seed"`
	InitialSize      int     `json:"initial_size"`
	Generations      int     `json:"generations"`
	FinalLength      int     `json:"final_length"`
	FinalDiversity   float64 `json:"final_diversity"`
	MeanLength       float64 `json:"mean_length"`
	MaxLength        int     `json:"max_length"`
	MinLength        int     `json:"min_length"`
	Collapsed        bool    `json:"collapsed"`
	GenerationsPerS  float64 `json:"generations_per_second"`
	ColorizePerS     float64 `json:"colorize_per_second"`
	ColorizeHitPerS  float64 `json:"colorize_cached_per_second"`
	StepColorizePerS float64 `json:"step_colorize_per_second"`
	ElapsedMS        int64   `json:"elapsed_ms"`
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Seed         uint32  `json:"seed"`
	InitialSize  int     `json:"initial_size"`
	Generations  int     `json:"generations"`
	FinalLength  int     `json:"final_length"`
	Diversity    float64 `json:"diversity"`
	Collapsed    bool    `json:"collapsed"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// WriteRunArtifacts writes config.json, summary.json, and history.csv for a
// run under baseDir/<run_id> and returns the run directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeHistoryCSV(filepath.Join(runDir, "history.csv"), artifacts.History); err != nil {
		return "", err
	}

	return runDir, nil
}

func writeHistoryCSV(path string, history []model.GenerationRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "length", "unique", "diversity", "snp_count", "dup_count", "del_count", "collapsed"}); err != nil {
		return err
	}
	for _, rec := range history {
		if err := writer.Write([]string{
			strconv.Itoa(rec.Generation),
			strconv.Itoa(rec.Length),
			strconv.Itoa(rec.Unique),
			strconv.FormatFloat(rec.Diversity, 'f', -1, 64),
			strconv.Itoa(rec.SNPCount),
			strconv.Itoa(rec.DupCount),
			strconv.Itoa(rec.DelCount),
			strconv.FormatBool(rec.Collapsed),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadHistoryCSV reads a run's per-generation history. It reports found=false
// when the run has no history file.
func ReadHistoryCSV(baseDir, runID string) ([]model.GenerationRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "history.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.GenerationRecord{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 8 {
		return nil, false, fmt.Errorf("history header must have at least 8 columns")
	}

	history := make([]model.GenerationRecord, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 8 {
			return nil, false, fmt.Errorf("history row must have at least 8 columns")
		}
		rec, err := parseHistoryRow(record)
		if err != nil {
			return nil, false, err
		}
		history = append(history, rec)
	}
	return history, true, nil
}

func parseHistoryRow(record []string) (model.GenerationRecord, error) {
	var rec model.GenerationRecord
	var err error
	if rec.Generation, err = strconv.Atoi(record[0]); err != nil {
		return model.GenerationRecord{}, err
	}
	if rec.Length, err = strconv.Atoi(record[1]); err != nil {
		return model.GenerationRecord{}, err
	}
	if rec.Unique, err = strconv.Atoi(record[2]); err != nil {
		return model.GenerationRecord{}, err
	}
	if rec.Diversity, err = strconv.ParseFloat(record[3], 64); err != nil {
		return model.GenerationRecord{}, err
	}
	if rec.SNPCount, err = strconv.Atoi(record[4]); err != nil {
		return model.GenerationRecord{}, err
	}
	if rec.DupCount, err = strconv.Atoi(record[5]); err != nil {
		return model.GenerationRecord{}, err
	}
	if rec.DelCount, err = strconv.Atoi(record[6]); err != nil {
		return model.GenerationRecord{}, err
	}
	if rec.Collapsed, err = strconv.ParseBool(record[7]); err != nil {
		return model.GenerationRecord{}, err
	}
	return rec, nil
}

func WriteBenchmarkSummary(runDir string, summary BenchmarkSummary) error {
	return writeJSON(filepath.Join(runDir, "benchmark_summary.json"), summary)
}

func ReadBenchmarkSummary(baseDir, runID string) (BenchmarkSummary, bool, error) {
	path := filepath.Join(baseDir, runID, "benchmark_summary.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BenchmarkSummary{}, false, nil
		}
		return BenchmarkSummary{}, false, err
	}
	var summary BenchmarkSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return BenchmarkSummary{}, false, err
	}
	return summary, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run's artifact files into outDir/<run_id> and
// returns the destination directory.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{"config.json", "summary.json", "history.csv"}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, optional := range []string{"benchmark_summary.json", "array.fasta"} {
		path := filepath.Join(src, optional)
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, filepath.Join(dst, optional)); err != nil {
				return "", err
			}
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadRunSummary(baseDir, runID string) (model.RunRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "summary.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}

	var summary model.RunRecord
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.RunRecord{}, false, err
	}
	return summary, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
