package source

import (
	"encoding/json"
	"time"

	"github.com/theirongolddev/riskboard/internal/model"
)

// FormatVersion is written into every export.
const FormatVersion = 1

// File is the envelope written by Export and accepted by Parse. Plain
// arrays of projects and JSONL (one project per line) are accepted too.
type File struct {
	Version    int                  `json:"version,omitempty"`
	ExportedAt time.Time            `json:"exportedAt,omitzero"`
	Currency   string               `json:"currency,omitempty"`
	Thresholds *model.KpiThresholds `json:"kpiThresholds,omitempty"`
	Projects   []json.RawMessage    `json:"projects"`
}

// ParseResult holds the output of parsing one project file.
type ParseResult struct {
	Path        string
	Projects    []model.Project
	Thresholds  *model.KpiThresholds
	Currency    string
	ParseErrors int      // project records that could not be decoded
	Warnings    []string // records that decoded but needed fixing up
	Err         error
}

// Options tune how records are normalised on import.
type Options struct {
	// Recompute rebuilds every entry's calculations from its month figures
	// instead of trusting the stored values.
	Recompute bool
}
