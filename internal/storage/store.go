package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/homewalk/internal/experiment"
)

const (
	metadataFile  = "metadata.json"
	solutionsFile = "solutions.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one saved run. Kind is the command that produced
// it: compare, town or dump.
type RunMetadata struct {
	ID         string                 `json:"id"`
	Kind       string                 `json:"kind"`
	Timestamp  time.Time              `json:"timestamp"`
	Seed       int64                  `json:"seed"`
	Size       int                    `json:"size"`
	Start      int                    `json:"start"`
	Eps        float64                `json:"eps"`
	MaxIter    int                    `json:"max_iter"`
	Trials     int                    `json:"trials"`
	Comparison *experiment.Comparison `json:"comparison,omitempty"`
	Results    []experiment.Result    `json:"results,omitempty"`
}

// Save writes meta and, for every result carrying a solution vector, one
// column of solutions.csv. It returns the new run ID. results are recorded
// in the metadata unless meta already holds them or a comparison.
func (s *Store) Save(meta RunMetadata, results []experiment.Result) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runID, runDir, err := s.newRunDir(meta.Kind, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = runID
	if meta.Results == nil && meta.Comparison == nil {
		meta.Results = results
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, solutionsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := writeSolutions(csvFile, results); err != nil {
		return "", err
	}
	return runID, nil
}

// newRunDir creates <kind>_<unix> under the base directory, adding a numeric
// suffix when that name is taken.
func (s *Store) newRunDir(kind string, ts time.Time) (string, string, error) {
	if kind == "" {
		kind = "run"
	}
	base := fmt.Sprintf("%s_%d", kind, ts.Unix())
	for i := 0; ; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

func writeSolutions(f *os.File, results []experiment.Result) error {
	w := csv.NewWriter(f)

	header := []string{"i"}
	var cols [][]float64
	n := 0
	for _, r := range results {
		if len(r.X) == 0 {
			continue
		}
		header = append(header, r.Method+"/"+r.Storage)
		cols = append(cols, r.X)
		n = max(n, len(r.X))
	}
	if len(cols) == 0 {
		w.Flush()
		return w.Error()
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		row := []string{strconv.Itoa(i)}
		for _, c := range cols {
			v := ""
			if i < len(c) {
				v = strconv.FormatFloat(c[i], 'g', -1, 64)
			}
			row = append(row, v)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSolutions returns the column names (method/storage) and the solution
// vectors saved with a run.
func (s *Store) LoadSolutions(runID string) ([]string, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, solutionsFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []string{}, [][]float64{}, nil
	}

	names := records[0][1:]
	cols := make([][]float64, len(names))
	for _, record := range records[1:] {
		for j := 1; j < len(record) && j <= len(names); j++ {
			if record[j] == "" {
				continue
			}
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s: %w", solutionsFile, err)
			}
			cols[j-1] = append(cols[j-1], v)
		}
	}
	return names, cols, nil
}
