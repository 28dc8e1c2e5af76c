// Package model defines domain types for riskboard projects, ledgers and metrics.
package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusPlanning    Status = "Planning"
	StatusInProgress  Status = "In Progress"
	StatusCompleted   Status = "Completed"
	StatusSuspended   Status = "Suspended"
	StatusTransferred Status = "Transferred"
)

// Statuses lists every known status in display order.
var Statuses = []Status{
	StatusPlanning,
	StatusInProgress,
	StatusCompleted,
	StatusSuspended,
	StatusTransferred,
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus matches a status name case-insensitively, ignoring spaces,
// dashes and underscores ("in-progress" -> In Progress).
func ParseStatus(raw string) (Status, bool) {
	want := squash(raw)
	for _, s := range Statuses {
		if squash(string(s)) == want {
			return s, true
		}
	}
	return "", false
}

func squash(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

// Target is the revenue planned for one calendar month.
type Target struct {
	Month string `json:"month"` // YYYY-MM
	Value Amount `json:"value"`
}

// Project is the aggregate root: contract data plus its targets, ledger and budget.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Directorate string `json:"directorate"`
	Category    string `json:"category"`
	Location    string `json:"location,omitempty"`
	Client      string `json:"client,omitempty"`
	Consultant  string `json:"consultant,omitempty"`
	Scope       string `json:"scope,omitempty"`

	CAValue              Amount `json:"caValue"`
	RevisedCAValue       Amount `json:"revisedCaValue"`
	PlannedProfitability Amount `json:"plannedProfitability"`
	Status               Status `json:"status"`

	StartDate             string `json:"startDate,omitempty"`
	CompletionDate        string `json:"completionDate,omitempty"`
	RevisedCompletionDate string `json:"revisedCompletionDate,omitempty"`

	Targets  []Target        `json:"targets"`
	Progress []ProgressEntry `json:"progress"`
	Budget   *Budget         `json:"budget,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LastEntry returns the most recent ledger entry, if any.
func (p Project) LastEntry() (ProgressEntry, bool) {
	if len(p.Progress) == 0 {
		return ProgressEntry{}, false
	}
	return p.Progress[len(p.Progress)-1], true
}

// Clone returns a deep copy so callers can mutate the result freely.
func (p Project) Clone() Project {
	out := p
	if p.Targets != nil {
		out.Targets = append([]Target(nil), p.Targets...)
	}
	if p.Progress != nil {
		out.Progress = make([]ProgressEntry, len(p.Progress))
		for i, e := range p.Progress {
			out.Progress[i] = e.Clone()
		}
	}
	if p.Budget != nil {
		b := *p.Budget
		out.Budget = &b
	}
	return out
}
