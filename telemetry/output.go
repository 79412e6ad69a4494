package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/oviz-lab/fluidlab/config"
)

// OutputManager handles structured session output with CSV logging.
type OutputManager struct {
	dir          string
	statsFile    *os.File
	perfFile     *os.File
	probeFile    *os.File
	traceFile    *os.File
	bookmarkFile *os.File

	// Track if headers have been written
	statsHeaderWritten    bool
	perfHeaderWritten     bool
	probeHeaderWritten    bool
	traceHeaderWritten    bool
	bookmarkHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled); a nil manager is
// safe to call.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	open := func(name string) (*os.File, error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		return f, nil
	}

	var err error
	if om.statsFile, err = open("telemetry.csv"); err != nil {
		return nil, err
	}
	if om.perfFile, err = open("perf.csv"); err != nil {
		return nil, err
	}
	if om.probeFile, err = open("probes.csv"); err != nil {
		return nil, err
	}
	if om.traceFile, err = open("traces.csv"); err != nil {
		return nil, err
	}
	if om.bookmarkFile, err = open("bookmarks.csv"); err != nil {
		return nil, err
	}

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// writeCSV appends one record, emitting the header on first write.
func writeCSV[T any](f *os.File, headerWritten *bool, rec T) error {
	records := []T{rec}
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteStats writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.statsFile, &om.statsHeaderWritten, stats); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.perfFile, &om.perfHeaderWritten, stats.ToCSV(windowEnd)); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteProbe writes a committed probe measurement to probes.csv.
func (om *OutputManager) WriteProbe(rec ProbeRecord) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.probeFile, &om.probeHeaderWritten, rec); err != nil {
		return fmt.Errorf("writing probe: %w", err)
	}
	return nil
}

// WriteTrace writes a finished tracer journey to traces.csv.
func (om *OutputManager) WriteTrace(rec TraceRecord) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.traceFile, &om.traceHeaderWritten, rec); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.bookmarkFile, &om.bookmarkHeaderWritten, b); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
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
	for _, f := range []*os.File{om.statsFile, om.perfFile, om.probeFile, om.traceFile, om.bookmarkFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
