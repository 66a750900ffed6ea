package investigation

// Schema is the DDL for the investigations table. Applied by deployment
// tooling in production and by the container manager in integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS investigations (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	stage      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT '',
	settings   JSONB NOT NULL,
	progress   JSONB NOT NULL,
	results    JSONB,
	version    BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_investigations_owner
	ON investigations (owner_id, created_at DESC);
`
