// Package svi reads CDC/ATSDR Social Vulnerability Index scores from a
// local CSV export.
package svi

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/civicatlas/grant-atlas/internal/observability"
)

// Column name variants seen across CDC exports and hand-edited copies.
var (
	geoidColumns = []string{"FIPS", "GEOID", "STCOFIPS"}
	scoreColumns = []string{"RPL_THEMES", "SVI", "RPL_THEMES_OVERALL"}
)

// Reader loads SVI scores keyed by tract GEOID.
type Reader struct {
	path    string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewReader creates a Reader for the given CSV path.
func NewReader(path string, metrics *observability.Metrics, logger *slog.Logger) *Reader {
	return &Reader{path: path, metrics: metrics, logger: logger}
}

// Scores parses the CSV and returns a GEOID -> overall SVI map. Scores
// outside [0, 1] (including the CDC -999 missing sentinel) are dropped.
func (r *Reader) Scores() (map[string]float64, error) {
	f, err := os.Open(r.path)
	if err != nil {
		r.metrics.FetchErrors.WithLabelValues("svi").Inc()
		return nil, fmt.Errorf("open svi csv: %w", err)
	}
	defer f.Close()

	scores, err := parse(f)
	if err != nil {
		r.metrics.FetchErrors.WithLabelValues("svi").Inc()
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}

	r.metrics.SVIRowsMapped.Add(float64(len(scores)))
	r.logger.Info("loaded svi scores", "path", r.path, "mapped", len(scores))
	return scores, nil
}

func parse(src io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1 // exports vary; tolerate ragged rows

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	geoidIdx := findColumn(header, geoidColumns)
	scoreIdx := findColumn(header, scoreColumns)
	if geoidIdx < 0 || scoreIdx < 0 {
		return nil, fmt.Errorf("could not identify GEOID or SVI columns in header %v", header)
	}

	scores := make(map[string]float64)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if geoidIdx >= len(row) || scoreIdx >= len(row) {
			continue
		}

		val, err := strconv.ParseFloat(strings.TrimSpace(row[scoreIdx]), 64)
		if err != nil || val < 0 || val > 1 {
			continue
		}
		scores[strings.TrimSpace(row[geoidIdx])] = val
	}
	return scores, nil
}

// findColumn returns the index of the first header matching any candidate,
// case-insensitively, or -1.
func findColumn(header, candidates []string) int {
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(h))
		for _, c := range candidates {
			if h == c {
				return i
			}
		}
	}
	return -1
}
