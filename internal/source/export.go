package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/riskboard/internal/model"
)

// Export writes projects as an indented File envelope.
func Export(w io.Writer, projects []model.Project, th *model.KpiThresholds, currency string) error {
	f := File{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
		Currency:   currency,
		Thresholds: th,
		Projects:   make([]json.RawMessage, 0, len(projects)),
	}
	for _, p := range projects {
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding project %s: %w", p.ID, err)
		}
		f.Projects = append(f.Projects, raw)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// ExportFile writes the export to path, replacing any existing file.
func ExportFile(path string, projects []model.Project, th *model.KpiThresholds, currency string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-supplied export path
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := Export(f, projects, th, currency); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing export file: %w", err)
	}
	return os.Rename(tmp, path)
}
