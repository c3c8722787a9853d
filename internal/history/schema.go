package history

// Schema is the run-history database schema, applied on open.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT UNIQUE NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	agents_total INTEGER NOT NULL DEFAULT 0,
	agents_excluded INTEGER NOT NULL DEFAULT 0,
	messages_forwarded INTEGER NOT NULL DEFAULT 0,
	send_failures INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS agent_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	agent_name TEXT,
	status TEXT NOT NULL,
	fetched INTEGER NOT NULL DEFAULT 0,
	forwarded INTEGER NOT NULL DEFAULT 0,
	cursor_before TEXT,
	cursor_after TEXT,
	error_text TEXT
);

CREATE INDEX IF NOT EXISTS idx_agent_results_run ON agent_results(run_id);
CREATE INDEX IF NOT EXISTS idx_agent_results_agent ON agent_results(agent_id);
`
