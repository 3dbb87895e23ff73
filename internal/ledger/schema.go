package ledger

// initSchema is executed on every open. Idempotent.
const initSchema = `
CREATE TABLE IF NOT EXISTS users (
    user_id                INTEGER PRIMARY KEY,
    username               TEXT,
    first_name             TEXT,
    last_name              TEXT,
    access_level           TEXT    NOT NULL DEFAULT 'free'
                           CHECK (access_level IN ('free', 'premium', 'admin')),
    remaining_free_queries INTEGER NOT NULL DEFAULT 30
                           CHECK (remaining_free_queries >= 0),
    total_queries          INTEGER NOT NULL DEFAULT 0,
    registered_at          TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_active_at         TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id       INTEGER NOT NULL REFERENCES users(user_id),
    provider      TEXT    NOT NULL,
    model_id      TEXT    NOT NULL,
    input_tokens  INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    query_cost    REAL    NOT NULL DEFAULT 0,
    created_at    TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP,
    date          TEXT    NOT NULL DEFAULT (date('now'))
);

CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id);
CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(date);
CREATE INDEX IF NOT EXISTS idx_messages_provider ON messages(provider);

CREATE TABLE IF NOT EXISTS provider_stats (
    provider            TEXT PRIMARY KEY,
    total_messages      INTEGER NOT NULL DEFAULT 0,
    total_input_tokens  INTEGER NOT NULL DEFAULT 0,
    total_output_tokens INTEGER NOT NULL DEFAULT 0,
    total_tokens        INTEGER NOT NULL DEFAULT 0,
    total_cost          REAL    NOT NULL DEFAULT 0
);
`
