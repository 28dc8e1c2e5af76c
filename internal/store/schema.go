package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
    id                       TEXT PRIMARY KEY,
    name                     TEXT NOT NULL,
    directorate              TEXT NOT NULL DEFAULT '',
    category                 TEXT NOT NULL DEFAULT '',
    location                 TEXT NOT NULL DEFAULT '',
    client                   TEXT NOT NULL DEFAULT '',
    consultant               TEXT NOT NULL DEFAULT '',
    scope                    TEXT NOT NULL DEFAULT '',
    ca_value                 REAL NOT NULL DEFAULT 0,
    revised_ca_value         REAL NOT NULL DEFAULT 0,
    planned_profitability    REAL NOT NULL DEFAULT 0,
    status                   TEXT NOT NULL,
    start_date               TEXT NOT NULL DEFAULT '',
    completion_date          TEXT NOT NULL DEFAULT '',
    revised_completion_date  TEXT NOT NULL DEFAULT '',
    created_at               TEXT NOT NULL,
    updated_at               TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS targets (
    project_id           TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    month                TEXT NOT NULL,
    value                REAL NOT NULL,
    PRIMARY KEY (project_id, position)
);

CREATE TABLE IF NOT EXISTS budgets (
    project_id              TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
    subcontractor_cost      REAL NOT NULL DEFAULT 0,
    material_cost           REAL NOT NULL DEFAULT 0,
    engineer_facility_cost  REAL NOT NULL DEFAULT 0,
    hr_cost                 REAL NOT NULL DEFAULT 0,
    general_adm_cost        REAL NOT NULL DEFAULT 0,
    tentative_escalation    REAL NOT NULL DEFAULT 0,
    overhead_method         TEXT NOT NULL DEFAULT 'percentage'
);

CREATE TABLE IF NOT EXISTS progress_entries (
    id                        TEXT PRIMARY KEY,
    project_id                TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    seq                       INTEGER NOT NULL,
    date                      TEXT NOT NULL,
    prev_actual_work_done     REAL NOT NULL,
    prev_escalation_pct       REAL NOT NULL,
    prev_vetted_revenue       REAL NOT NULL,
    prev_amount_received      REAL NOT NULL,
    cur_work_done             REAL NOT NULL,
    cur_escalation_pct        REAL NOT NULL,
    cur_vetted_revenue        REAL NOT NULL,
    cur_amount_received       REAL NOT NULL,
    escalation_during_month   REAL NOT NULL,
    upto_actual_work_done     REAL NOT NULL,
    upto_escalation           REAL NOT NULL,
    upto_actual_revenue       REAL NOT NULL,
    upto_vetted_revenue       REAL NOT NULL,
    upto_amount_received      REAL NOT NULL,
    upto_slippage             REAL NOT NULL,
    upto_receivable           REAL NOT NULL,
    UNIQUE (project_id, seq)
);

CREATE TABLE IF NOT EXISTS entry_expenditures (
    entry_id             TEXT NOT NULL REFERENCES progress_entries(id) ON DELETE CASCADE,
    head                 TEXT NOT NULL,
    amount               REAL NOT NULL,
    PRIMARY KEY (entry_id, head)
);

CREATE INDEX IF NOT EXISTS idx_projects_directorate ON projects(directorate);
CREATE INDEX IF NOT EXISTS idx_entries_project ON progress_entries(project_id, seq);
`
