package storage

// The schedule columns live on the item row so that a review is one UPDATE.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    category TEXT NOT NULL,
    topic TEXT NOT NULL DEFAULT '',
    sub_topic TEXT NOT NULL DEFAULT '',
    error_type TEXT NOT NULL DEFAULT '',
    prompt TEXT NOT NULL,
    answer TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]', -- JSON array
    hash TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL,

    repetition_count INTEGER NOT NULL DEFAULT 0 CHECK (repetition_count >= 0),
    ease_factor REAL NOT NULL DEFAULT 2.5 CHECK (ease_factor >= 1.3),
    interval_days INTEGER NOT NULL DEFAULT 1 CHECK (interval_days >= 1),
    due_date TEXT NOT NULL, -- YYYY-MM-DD
    mastered BOOLEAN NOT NULL DEFAULT FALSE,
    last_reviewed_at TEXT,
    total_attempts INTEGER NOT NULL DEFAULT 0,
    got_correct BOOLEAN NOT NULL DEFAULT FALSE,
    version INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_items_due ON items (category, mastered, due_date);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS items (
    id BIGSERIAL PRIMARY KEY,
    kind TEXT NOT NULL,
    category TEXT NOT NULL,
    topic TEXT NOT NULL DEFAULT '',
    sub_topic TEXT NOT NULL DEFAULT '',
    error_type TEXT NOT NULL DEFAULT '',
    prompt TEXT NOT NULL,
    answer TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    hash TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL,

    repetition_count INTEGER NOT NULL DEFAULT 0 CHECK (repetition_count >= 0),
    ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5 CHECK (ease_factor >= 1.3),
    interval_days INTEGER NOT NULL DEFAULT 1 CHECK (interval_days >= 1),
    due_date TEXT NOT NULL,
    mastered BOOLEAN NOT NULL DEFAULT FALSE,
    last_reviewed_at TEXT,
    total_attempts INTEGER NOT NULL DEFAULT 0,
    got_correct BOOLEAN NOT NULL DEFAULT FALSE,
    version BIGINT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_items_due ON items (category, mastered, due_date);
`
