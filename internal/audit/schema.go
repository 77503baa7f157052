package audit

// schemaSQL creates the run audit tables. Every statement is idempotent.
const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS audit;

CREATE TABLE IF NOT EXISTS audit.runs (
	run_id      UUID PRIMARY KEY,
	kind        TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	config_hash TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	examined    INTEGER NOT NULL,
	accepted    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS runs_started_at_idx ON audit.runs (started_at DESC);

CREATE TABLE IF NOT EXISTS audit.run_reasons (
	run_id UUID NOT NULL REFERENCES audit.runs (run_id) ON DELETE CASCADE,
	reason TEXT NOT NULL,
	count  INTEGER NOT NULL,
	PRIMARY KEY (run_id, reason)
);

CREATE TABLE IF NOT EXISTS audit.run_decisions (
	run_id  UUID NOT NULL REFERENCES audit.runs (run_id) ON DELETE CASCADE,
	note_id BIGINT NOT NULL,
	loan_id BIGINT NOT NULL,
	price   NUMERIC(12, 2) NOT NULL,
	reasons TEXT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (run_id, note_id)
);

ALTER TABLE audit.run_decisions ADD COLUMN IF NOT EXISTS reasons TEXT[] NOT NULL DEFAULT '{}';
`
