// Package source imports and exports riskboard project files.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/riskboard/internal/ledger"
	"github.com/theirongolddev/riskboard/internal/model"
)

var projectsKey = []byte(`"projects"`)

// ParseFile reads a project file from disk.
func ParseFile(path string, opts Options) ParseResult {
	f, err := os.Open(path) //nolint:gosec // user-supplied import path
	if err != nil {
		return ParseResult{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	res := Parse(f, opts)
	res.Path = path
	return res
}

// Parse decodes projects from r. The input may be a File envelope, a JSON
// array of projects, or JSONL with one project per line. Records that fail
// to decode are counted and skipped; numeric fields decode leniently.
func Parse(r io.Reader, opts Options) ParseResult {
	data, err := io.ReadAll(r)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("reading project file: %w", err)}
	}
	data = bytes.TrimSpace(data)

	var res ParseResult
	var records [][]byte

	switch {
	case len(data) == 0:
		return res
	case data[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return ParseResult{Err: fmt.Errorf("parsing project array: %w", err)}
		}
		for _, rec := range raw {
			records = append(records, rec)
		}
	case data[0] == '{' && isEnvelope(data):
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return ParseResult{Err: fmt.Errorf("parsing project file: %w", err)}
		}
		res.Thresholds = f.Thresholds
		res.Currency = f.Currency
		for _, rec := range f.Projects {
			records = append(records, rec)
		}
	default:
		records = splitLines(data)
	}

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		var p model.Project
		if err := json.Unmarshal(rec, &p); err != nil {
			res.ParseErrors++
			continue
		}
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			res.ParseErrors++
			continue
		}
		if _, dup := seen[p.ID]; dup {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: duplicate id, keeping the first", p.ID))
			continue
		}
		seen[p.ID] = struct{}{}

		res.Warnings = append(res.Warnings, normalize(&p, opts)...)
		res.Projects = append(res.Projects, p)
	}

	return res
}

// isEnvelope reports whether a JSON object has a top-level "projects" key.
func isEnvelope(data []byte) bool {
	if !bytes.Contains(data, projectsKey) {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, ok := probe["projects"]
	return ok
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 256*1024), 8*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	return lines
}

// normalize fills in what a hand-written or older file may lack.
func normalize(p *model.Project, opts Options) []string {
	var warns []string

	if s, ok := model.ParseStatus(string(p.Status)); ok {
		p.Status = s
	} else {
		if p.Status != "" {
			warns = append(warns, fmt.Sprintf("%s: unknown status %q, using %s", p.ID, p.Status, model.StatusPlanning))
		}
		p.Status = model.StatusPlanning
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	for i := range p.Progress {
		e := &p.Progress[i]
		if e.ID == "" {
			e.ID = entryID(p.ID, i, *e)
		}
		if e.Expenditures == nil {
			e.Expenditures = make(map[string]model.Amount)
		}
		if opts.Recompute {
			rebuilt := ledger.BuildAt(e.PreviousMonth, e.CurrentMonth, e.Expenditures, e.Date)
			if rebuilt.Calculations != e.Calculations {
				warns = append(warns, fmt.Sprintf("%s: entry %s calculations recomputed", p.ID, e.ID))
			}
			e.Calculations = rebuilt.Calculations
		}
	}
	return warns
}

// entryID derives a stable ID for an entry stored without one, so the same
// file imported twice names its entries the same way.
func entryID(projectID string, seq int, e model.ProgressEntry) string {
	key := fmt.Sprintf("%s|%d|%s|%v|%v", projectID, seq,
		e.Date.UTC().Format(time.RFC3339Nano), e.PreviousMonth, e.CurrentMonth)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
