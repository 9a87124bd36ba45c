package postgres

// Migrations holds the schema statements, applied in order. Every statement
// is idempotent so Migrate can run on every startup.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS billing_parents (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL DEFAULT '',
		phone       TEXT NOT NULL DEFAULT '',
		student_ids TEXT[] NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS billing_students (
		id         TEXT PRIMARY KEY,
		parent_id  TEXT NOT NULL,
		name       TEXT NOT NULL,
		grade      TEXT NOT NULL DEFAULT '',
		rates      JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_billing_students_parent
		ON billing_students (parent_id)`,

	`CREATE TABLE IF NOT EXISTS billing_tutors (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		subjects   TEXT[] NOT NULL DEFAULT '{}',
		pay_rates  JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS billing_sessions (
		id               TEXT PRIMARY KEY,
		parent_id        TEXT NOT NULL DEFAULT '',
		student_id       TEXT NOT NULL DEFAULT '',
		tutor_id         TEXT NOT NULL,
		subject          TEXT NOT NULL DEFAULT '',
		start_time       TIMESTAMPTZ NOT NULL,
		end_time         TIMESTAMPTZ NOT NULL,
		duration_minutes BIGINT NOT NULL DEFAULT 0,
		status           TEXT NOT NULL,
		cost_cents       BIGINT,
		billed_to_parent BOOLEAN NOT NULL DEFAULT FALSE,
		invoice_id       TEXT NOT NULL DEFAULT '',
		paid_to_tutor    BOOLEAN NOT NULL DEFAULT FALSE,
		pay_stub_id      TEXT NOT NULL DEFAULT '',
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_billing_sessions_parent
		ON billing_sessions (parent_id, billed_to_parent, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_billing_sessions_student
		ON billing_sessions (student_id, billed_to_parent, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_billing_sessions_tutor
		ON billing_sessions (tutor_id, paid_to_tutor, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_billing_sessions_invoice
		ON billing_sessions (invoice_id)`,
	`CREATE INDEX IF NOT EXISTS idx_billing_sessions_pay_stub
		ON billing_sessions (pay_stub_id)`,

	`CREATE TABLE IF NOT EXISTS billing_invoices (
		id          TEXT PRIMARY KEY,
		number      TEXT NOT NULL UNIQUE,
		parent_id   TEXT NOT NULL,
		line_items  JSONB NOT NULL,
		total_cents BIGINT NOT NULL,
		status      TEXT NOT NULL,
		issue_date  TIMESTAMPTZ NOT NULL,
		due_date    TIMESTAMPTZ NOT NULL,
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_billing_invoices_parent
		ON billing_invoices (parent_id, issue_date DESC)`,

	`CREATE TABLE IF NOT EXISTS billing_paystubs (
		id          TEXT PRIMARY KEY,
		sequence    BIGINT NOT NULL,
		number      TEXT NOT NULL UNIQUE,
		tutor_id    TEXT NOT NULL,
		line_items  JSONB NOT NULL,
		total_hours DOUBLE PRECISION NOT NULL,
		pay_cents   BIGINT NOT NULL,
		status      TEXT NOT NULL,
		issue_date  TIMESTAMPTZ NOT NULL,
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_billing_paystubs_tutor
		ON billing_paystubs (tutor_id, sequence DESC)`,

	`CREATE TABLE IF NOT EXISTS billing_sequences (
		name   TEXT PRIMARY KEY,
		minted BIGINT NOT NULL DEFAULT 0
	)`,
}
