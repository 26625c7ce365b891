package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cityscope/internal/infrastructure"
)

// LoadError reports why a dataset could not be loaded. Callers render
// sections from a failed dataset as unavailable rather than failing the
// whole dashboard.
type LoadError struct {
	Dataset string
	File    string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("dataset %s: load %s: %v", e.Dataset, e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader reads dataset CSV files from a data directory and memoizes
// successful loads. Failed loads are not cached, so a file dropped into
// the directory after startup is picked up on the next request.
type Loader struct {
	dir     string
	logger  *slog.Logger
	metrics *infrastructure.RequestMetrics

	mu     sync.RWMutex
	tables map[string]*Table
}

// NewLoader creates a loader over the given data directory
func NewLoader(dir string, logger *slog.Logger, metrics *infrastructure.RequestMetrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		dir:     dir,
		logger:  logger,
		metrics: metrics,
		tables:  make(map[string]*Table),
	}
}

// Get returns the table for a dataset, loading it on first use.
// An unknown id or a failed load returns a *LoadError.
func (l *Loader) Get(ctx context.Context, id string) (*Table, error) {
	l.mu.RLock()
	t, ok := l.tables[id]
	l.mu.RUnlock()
	if ok {
		return t, nil
	}

	desc, ok := Lookup(id)
	if !ok {
		return nil, &LoadError{Dataset: id, Err: fmt.Errorf("unknown dataset")}
	}

	t, err := l.load(ctx, desc)
	if err != nil {
		l.metrics.RecordDatasetLoad(ctx, id, false)
		l.logger.WarnContext(ctx, "dataset load failed",
			slog.String("dataset", id),
			slog.String("file", desc.File),
			slog.String("error", err.Error()))
		return nil, err
	}

	l.mu.Lock()
	// another request may have loaded it concurrently, keep the first
	if existing, ok := l.tables[id]; ok {
		t = existing
	} else {
		l.tables[id] = t
	}
	l.mu.Unlock()

	l.metrics.RecordDatasetLoad(ctx, id, true)
	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("dataset", id),
		slog.String("file", desc.File),
		slog.Int("rows", t.NumRows()))
	return t, nil
}

// WarmUp loads every registered dataset concurrently. Individual load
// failures are logged and skipped; only a context cancellation aborts.
func (l *Loader) WarmUp(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for _, desc := range Registry {
		id := desc.ID
		g.Go(func() error {
			if _, err := l.Get(gctx, id); err != nil {
				// unavailable datasets are expected, surface via Status
				return nil
			}
			return gctx.Err()
		})
	}
	_ = g.Wait()
}

// Status reports availability of every registered dataset, probing any
// that is not yet cached.
func (l *Loader) Status(ctx context.Context) map[string]error {
	status := make(map[string]error, len(Registry))
	for _, desc := range Registry {
		_, err := l.Get(ctx, desc.ID)
		status[desc.ID] = err
	}
	return status
}

// Invalidate drops the cached table for a dataset so the next Get
// re-reads the file.
func (l *Loader) Invalidate(id string) {
	l.mu.Lock()
	delete(l.tables, id)
	l.mu.Unlock()
}

func (l *Loader) load(ctx context.Context, desc Descriptor) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Dataset: desc.ID, File: desc.File, Err: err}
	}

	path := filepath.Join(l.dir, desc.File)
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Dataset: desc.ID, File: desc.File, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, &LoadError{Dataset: desc.ID, File: desc.File, Err: fmt.Errorf("read header: %w", err)}
	}
	colIdx, err := matchHeader(desc, header)
	if err != nil {
		return nil, &LoadError{Dataset: desc.ID, File: desc.File, Err: err}
	}

	t := &Table{
		desc:    desc,
		numbers: make(map[string][]float64),
		strings: make(map[string][]string),
		dates:   make(map[string][]time.Time),
		raw:     make(map[string][]string),
	}
	dateLayout := desc.DateFormat
	if dateLayout == "" {
		dateLayout = "2006-01-02"
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, &LoadError{Dataset: desc.ID, File: desc.File, Err: fmt.Errorf("read rows: %w", err)}
	}

	for _, rec := range records {
		for _, field := range desc.Fields {
			cell := strings.TrimSpace(rec[colIdx[field.Name]])
			t.raw[field.Name] = append(t.raw[field.Name], cell)
			switch field.Kind {
			case KindNumber:
				t.numbers[field.Name] = append(t.numbers[field.Name], parseNumber(cell))
			case KindDate:
				t.dates[field.Name] = append(t.dates[field.Name], parseDate(cell, dateLayout))
			default:
				t.strings[field.Name] = append(t.strings[field.Name], cell)
			}
		}
		t.rows++
	}
	return t, nil
}

// matchHeader maps declared field names to file column positions.
// Extra columns in the file are ignored; a missing declared column is
// a schema error.
func matchHeader(desc Descriptor, header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.ToLower(strings.TrimSpace(h))] = i
	}
	colIdx := make(map[string]int, len(desc.Fields))
	var missing []string
	for _, f := range desc.Fields {
		i, ok := positions[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		colIdx[f.Name] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return colIdx, nil
}

// parseNumber coerces a cell to float64, returning NaN for missing or
// malformed values. Empty, NA and NaN cells count as missing.
func parseNumber(cell string) float64 {
	if cell == "" {
		return math.NaN()
	}
	switch strings.ToUpper(cell) {
	case "NA", "NAN", "N/A", "NULL":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseDate(cell, layout string) time.Time {
	if cell == "" {
		return time.Time{}
	}
	t, err := time.Parse(layout, cell)
	if err != nil {
		return time.Time{}
	}
	return t
}
