package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hcp/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir         string
	windowFile  *os.File
	speciesFile *os.File
	perfFile    *os.File

	// Track if headers have been written
	windowHeaderWritten  bool
	speciesHeaderWritten bool
	perfHeaderWritten    bool

	// Occupancy history kept for the end-of-run plot
	history []SpeciesWindow
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "windows.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating windows.csv: %w", err)
	}
	om.windowFile = f

	f, err = os.Create(filepath.Join(dir, "species.csv"))
	if err != nil {
		om.windowFile.Close()
		return nil, fmt.Errorf("creating species.csv: %w", err)
	}
	om.speciesFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.windowFile.Close()
		om.speciesFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// writeCSV marshals records to w, writing the header only on the first call.
func writeCSV(w io.Writer, records any, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, w); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, w)
}

// WriteWindow writes a window stats record to windows.csv.
func (om *OutputManager) WriteWindow(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.windowFile, []WindowStats{stats}, &om.windowHeaderWritten); err != nil {
		return fmt.Errorf("writing window stats: %w", err)
	}
	return nil
}

// WriteSpecies writes per-species occupancy records to species.csv.
func (om *OutputManager) WriteSpecies(records []SpeciesWindow) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	if err := writeCSV(om.speciesFile, records, &om.speciesHeaderWritten); err != nil {
		return fmt.Errorf("writing species stats: %w", err)
	}
	om.history = append(om.history, records...)
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.perfFile, []PerfStatsCSV{stats.ToCSV(windowEnd)}, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WritePlot renders the occupancy history to occupancy.png.
func (om *OutputManager) WritePlot() error {
	if om == nil || len(om.history) == 0 {
		return nil
	}
	return PlotOccupancy(om.history, filepath.Join(om.dir, "occupancy.png"))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.windowFile, om.speciesFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadSpecies loads species.csv records from dir.
func ReadSpecies(dir string) ([]SpeciesWindow, error) {
	f, err := os.Open(filepath.Join(dir, "species.csv"))
	if err != nil {
		return nil, fmt.Errorf("opening species.csv: %w", err)
	}
	defer f.Close()

	var records []SpeciesWindow
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("reading species.csv: %w", err)
	}
	return records, nil
}
