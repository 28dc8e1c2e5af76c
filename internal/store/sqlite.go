package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/riskboard/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX  = (*sql.DB)(nil)
	_ DBTX  = (*sql.Tx)(nil)
	_ Store = (*SQLite)(nil)
)

const timeLayout = time.RFC3339Nano

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the project database at the given path.
func Open(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening project db: %w", err)
	}
	// one writer; ledger appends rely on transactions not interleaving
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) withinTx(ctx context.Context, fn func(tx DBTX) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// List returns every project ordered by ID.
func (s *SQLite) List(ctx context.Context) ([]model.Project, error) {
	return loadProjects(ctx, s.db, "")
}

// Get returns one project.
func (s *SQLite) Get(ctx context.Context, id string) (model.Project, error) {
	return getProject(ctx, s.db, id)
}

// Append stores a new project with its targets, budget and ledger.
func (s *SQLite) Append(ctx context.Context, p model.Project) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	return s.withinTx(ctx, func(tx DBTX) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE id = ?", p.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking project %s: %w", p.ID, err)
		}
		if exists > 0 {
			return fmt.Errorf("%s: %w", p.ID, ErrExists)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO projects
			(id, name, directorate, category, location, client, consultant, scope,
			 ca_value, revised_ca_value, planned_profitability, status,
			 start_date, completion_date, revised_completion_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Directorate, p.Category, p.Location, p.Client, p.Consultant, p.Scope,
			float64(p.CAValue), float64(p.RevisedCAValue), float64(p.PlannedProfitability), string(p.Status),
			p.StartDate, p.CompletionDate, p.RevisedCompletionDate,
			p.CreatedAt.UTC().Format(timeLayout), p.UpdatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("inserting project %s: %w", p.ID, err)
		}

		if err := writeTargets(ctx, tx, p.ID, p.Targets); err != nil {
			return err
		}
		if err := writeBudget(ctx, tx, p.ID, p.Budget); err != nil {
			return err
		}
		for i, e := range p.Progress {
			if err := insertEntry(ctx, tx, p.ID, i, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// Replace rewrites a stored project. See Store.
func (s *SQLite) Replace(ctx context.Context, p model.Project) error {
	updated := time.Now().UTC()

	return s.withinTx(ctx, func(tx DBTX) error {
		res, err := tx.ExecContext(ctx, `UPDATE projects SET
			name = ?, directorate = ?, category = ?, location = ?, client = ?, consultant = ?, scope = ?,
			ca_value = ?, revised_ca_value = ?, planned_profitability = ?, status = ?,
			start_date = ?, completion_date = ?, revised_completion_date = ?, updated_at = ?
			WHERE id = ?`,
			p.Name, p.Directorate, p.Category, p.Location, p.Client, p.Consultant, p.Scope,
			float64(p.CAValue), float64(p.RevisedCAValue), float64(p.PlannedProfitability), string(p.Status),
			p.StartDate, p.CompletionDate, p.RevisedCompletionDate, updated.Format(timeLayout),
			p.ID,
		)
		if err != nil {
			return fmt.Errorf("updating project %s: %w", p.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%s: %w", p.ID, ErrNotFound)
		}

		if err := writeTargets(ctx, tx, p.ID, p.Targets); err != nil {
			return err
		}
		if err := writeBudget(ctx, tx, p.ID, p.Budget); err != nil {
			return err
		}

		stored, err := entryIDs(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		next := len(stored)
		for _, e := range p.Progress {
			if _, ok := stored[e.ID]; ok {
				continue
			}
			if err := insertEntry(ctx, tx, p.ID, next, e); err != nil {
				return err
			}
			next++
		}
		return nil
	})
}

// Remove deletes a project and everything it owns.
func (s *SQLite) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// AppendProgress appends the entry produced by build inside one transaction.
func (s *SQLite) AppendProgress(ctx context.Context, id string, build BuildFunc) (model.ProgressEntry, error) {
	var entry model.ProgressEntry

	err := s.withinTx(ctx, func(tx DBTX) error {
		p, err := getProject(ctx, tx, id)
		if err != nil {
			return err
		}
		entry, err = build(p)
		if err != nil {
			return err
		}
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}

		if err := insertEntry(ctx, tx, id, len(p.Progress), entry); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE projects SET updated_at = ? WHERE id = ?",
			time.Now().UTC().Format(timeLayout), id)
		if err != nil {
			return fmt.Errorf("touching project %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return model.ProgressEntry{}, err
	}
	return entry, nil
}

func writeTargets(ctx context.Context, q DBTX, projectID string, targets []model.Target) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM targets WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("clearing targets for %s: %w", projectID, err)
	}
	for i, t := range targets {
		_, err := q.ExecContext(ctx, "INSERT INTO targets (project_id, position, month, value) VALUES (?, ?, ?, ?)",
			projectID, i, t.Month, float64(t.Value))
		if err != nil {
			return fmt.Errorf("inserting target for %s: %w", projectID, err)
		}
	}
	return nil
}

func writeBudget(ctx context.Context, q DBTX, projectID string, b *model.Budget) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM budgets WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("clearing budget for %s: %w", projectID, err)
	}
	if b == nil {
		return nil
	}
	method := b.OverheadMethod
	if method == "" {
		method = model.OverheadPercentage
	}
	_, err := q.ExecContext(ctx, `INSERT INTO budgets
		(project_id, subcontractor_cost, material_cost, engineer_facility_cost,
		 hr_cost, general_adm_cost, tentative_escalation, overhead_method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, float64(b.SubcontractorCost), float64(b.MaterialCost), float64(b.EngineerFacilityCost),
		float64(b.HRCost), float64(b.GeneralAdmCost), float64(b.TentativeEscalation), string(method),
	)
	if err != nil {
		return fmt.Errorf("inserting budget for %s: %w", projectID, err)
	}
	return nil
}

func insertEntry(ctx context.Context, q DBTX, projectID string, seq int, e model.ProgressEntry) error {
	pm, cm, c := e.PreviousMonth, e.CurrentMonth, e.Calculations
	_, err := q.ExecContext(ctx, `INSERT INTO progress_entries
		(id, project_id, seq, date,
		 prev_actual_work_done, prev_escalation_pct, prev_vetted_revenue, prev_amount_received,
		 cur_work_done, cur_escalation_pct, cur_vetted_revenue, cur_amount_received,
		 escalation_during_month, upto_actual_work_done, upto_escalation, upto_actual_revenue,
		 upto_vetted_revenue, upto_amount_received, upto_slippage, upto_receivable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, projectID, seq, e.Date.UTC().Format(timeLayout),
		float64(pm.ActualWorkDone), float64(pm.EscalationPercentage), float64(pm.VettedRevenue), float64(pm.AmountReceived),
		float64(cm.WorkDone), float64(cm.EscalationPercentage), float64(cm.VettedRevenue), float64(cm.AmountReceived),
		float64(c.EscalationDuringMonth), float64(c.UptoDateActualWorkDone), float64(c.UptoDateEscalation), float64(c.UptoDateActualRevenue),
		float64(c.UptoDateVettedRevenue), float64(c.UptoDateAmountReceived), float64(c.UptoDateSlippage), float64(c.UptoDateReceivable),
	)
	if err != nil {
		return fmt.Errorf("inserting progress entry %s: %w", e.ID, err)
	}

	for head, amount := range e.Expenditures {
		_, err := q.ExecContext(ctx, "INSERT INTO entry_expenditures (entry_id, head, amount) VALUES (?, ?, ?)",
			e.ID, head, float64(amount))
		if err != nil {
			return fmt.Errorf("inserting expenditure %q for %s: %w", head, e.ID, err)
		}
	}
	return nil
}

func entryIDs(ctx context.Context, q DBTX, projectID string) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, "SELECT id FROM progress_entries WHERE project_id = ?", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying entries for %s: %w", projectID, err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func getProject(ctx context.Context, q DBTX, id string) (model.Project, error) {
	projects, err := loadProjects(ctx, q, id)
	if err != nil {
		return model.Project{}, err
	}
	if len(projects) == 0 {
		return model.Project{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return projects[0], nil
}

// loadProjects reads projects with their children. An empty id loads all.
func loadProjects(ctx context.Context, q DBTX, id string) ([]model.Project, error) {
	where, childWhere := "", ""
	var args []any
	if id != "" {
		where = " WHERE id = ?"
		childWhere = " WHERE project_id = ?"
		args = []any{id}
	}

	rows, err := q.QueryContext(ctx, `SELECT
		id, name, directorate, category, location, client, consultant, scope,
		ca_value, revised_ca_value, planned_profitability, status,
		start_date, completion_date, revised_completion_date, created_at, updated_at
		FROM projects`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var ca, revised, planned float64
		var status, created, updated string
		err := rows.Scan(
			&p.ID, &p.Name, &p.Directorate, &p.Category, &p.Location, &p.Client, &p.Consultant, &p.Scope,
			&ca, &revised, &planned, &status,
			&p.StartDate, &p.CompletionDate, &p.RevisedCompletionDate, &created, &updated,
		)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.CAValue = model.Amount(ca)
		p.RevisedCAValue = model.Amount(revised)
		p.PlannedProfitability = model.Amount(planned)
		p.Status = model.Status(status)
		p.CreatedAt, _ = time.Parse(timeLayout, created)
		p.UpdatedAt, _ = time.Parse(timeLayout, updated)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(projects) == 0 {
		return nil, nil
	}

	idx := make(map[string]int, len(projects))
	for i, p := range projects {
		idx[p.ID] = i
	}

	if err := loadTargets(ctx, q, childWhere, args, projects, idx); err != nil {
		return nil, err
	}
	if err := loadBudgets(ctx, q, childWhere, args, projects, idx); err != nil {
		return nil, err
	}
	if err := loadEntries(ctx, q, childWhere, args, projects, idx); err != nil {
		return nil, err
	}
	return projects, nil
}

func loadTargets(ctx context.Context, q DBTX, where string, args []any, projects []model.Project, idx map[string]int) error {
	rows, err := q.QueryContext(ctx, "SELECT project_id, month, value FROM targets"+where+" ORDER BY project_id, position", args...)
	if err != nil {
		return fmt.Errorf("querying targets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var pid string
		var t model.Target
		var value float64
		if err := rows.Scan(&pid, &t.Month, &value); err != nil {
			return fmt.Errorf("scanning target: %w", err)
		}
		t.Value = model.Amount(value)
		if i, ok := idx[pid]; ok {
			projects[i].Targets = append(projects[i].Targets, t)
		}
	}
	return rows.Err()
}

func loadBudgets(ctx context.Context, q DBTX, where string, args []any, projects []model.Project, idx map[string]int) error {
	rows, err := q.QueryContext(ctx, `SELECT project_id, subcontractor_cost, material_cost, engineer_facility_cost,
		hr_cost, general_adm_cost, tentative_escalation, overhead_method FROM budgets`+where, args...)
	if err != nil {
		return fmt.Errorf("querying budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var pid, method string
		var sub, mat, eng, hr, adm, esc float64
		if err := rows.Scan(&pid, &sub, &mat, &eng, &hr, &adm, &esc, &method); err != nil {
			return fmt.Errorf("scanning budget: %w", err)
		}
		if i, ok := idx[pid]; ok {
			projects[i].Budget = &model.Budget{
				SubcontractorCost:    model.Amount(sub),
				MaterialCost:         model.Amount(mat),
				EngineerFacilityCost: model.Amount(eng),
				HRCost:               model.Amount(hr),
				GeneralAdmCost:       model.Amount(adm),
				TentativeEscalation:  model.Amount(esc),
				OverheadMethod:       model.OverheadMethod(method),
			}
		}
	}
	return rows.Err()
}

func loadEntries(ctx context.Context, q DBTX, where string, args []any, projects []model.Project, idx map[string]int) error {
	rows, err := q.QueryContext(ctx, `SELECT id, project_id, date,
		prev_actual_work_done, prev_escalation_pct, prev_vetted_revenue, prev_amount_received,
		cur_work_done, cur_escalation_pct, cur_vetted_revenue, cur_amount_received,
		escalation_during_month, upto_actual_work_done, upto_escalation, upto_actual_revenue,
		upto_vetted_revenue, upto_amount_received, upto_slippage, upto_receivable
		FROM progress_entries`+where+` ORDER BY project_id, seq`, args...)
	if err != nil {
		return fmt.Errorf("querying progress entries: %w", err)
	}

	type loc struct{ project, entry int }
	entryIdx := make(map[string]loc)

	for rows.Next() {
		var e model.ProgressEntry
		var pid, date string
		var v [16]float64
		err := rows.Scan(&e.ID, &pid, &date,
			&v[0], &v[1], &v[2], &v[3],
			&v[4], &v[5], &v[6], &v[7],
			&v[8], &v[9], &v[10], &v[11],
			&v[12], &v[13], &v[14], &v[15],
		)
		if err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning progress entry: %w", err)
		}
		e.Date, _ = time.Parse(timeLayout, date)
		e.PreviousMonth = model.PreviousMonth{
			ActualWorkDone:       model.Amount(v[0]),
			EscalationPercentage: model.Amount(v[1]),
			VettedRevenue:        model.Amount(v[2]),
			AmountReceived:       model.Amount(v[3]),
		}
		e.CurrentMonth = model.CurrentMonth{
			WorkDone:             model.Amount(v[4]),
			EscalationPercentage: model.Amount(v[5]),
			VettedRevenue:        model.Amount(v[6]),
			AmountReceived:       model.Amount(v[7]),
		}
		e.Calculations = model.Calculations{
			EscalationDuringMonth:  model.Amount(v[8]),
			UptoDateActualWorkDone: model.Amount(v[9]),
			UptoDateEscalation:     model.Amount(v[10]),
			UptoDateActualRevenue:  model.Amount(v[11]),
			UptoDateVettedRevenue:  model.Amount(v[12]),
			UptoDateAmountReceived: model.Amount(v[13]),
			UptoDateSlippage:       model.Amount(v[14]),
			UptoDateReceivable:     model.Amount(v[15]),
		}
		e.Expenditures = make(map[string]model.Amount)

		if i, ok := idx[pid]; ok {
			projects[i].Progress = append(projects[i].Progress, e)
			entryIdx[e.ID] = loc{project: i, entry: len(projects[i].Progress) - 1}
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	if len(entryIdx) == 0 {
		return nil
	}

	expWhere := strings.Replace(where, "project_id", "p.project_id", 1)
	expRows, err := q.QueryContext(ctx, `SELECT x.entry_id, x.head, x.amount
		FROM entry_expenditures x JOIN progress_entries p ON p.id = x.entry_id`+expWhere, args...)
	if err != nil {
		return fmt.Errorf("querying expenditures: %w", err)
	}
	defer func() { _ = expRows.Close() }()

	for expRows.Next() {
		var eid, head string
		var amount float64
		if err := expRows.Scan(&eid, &head, &amount); err != nil {
			return fmt.Errorf("scanning expenditure: %w", err)
		}
		if l, ok := entryIdx[eid]; ok {
			projects[l.project].Progress[l.entry].Expenditures[head] = model.Amount(amount)
		}
	}
	return expRows.Err()
}

// IsNotFound reports whether err means the project does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
