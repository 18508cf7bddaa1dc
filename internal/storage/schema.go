package storage

const schema = `
-- Deck sources: a local directory or a git repository URL.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- local | git
    last_scanned DATETIME
);

-- Vocabulary flashcards with their mastery state. version is bumped on every
-- review so concurrent reviews of one card cannot overwrite each other.
CREATE TABLE IF NOT EXISTS flashcards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    word TEXT NOT NULL,
    meaning TEXT NOT NULL DEFAULT '',
    example TEXT NOT NULL DEFAULT '',
    hash TEXT NOT NULL,
    source_id INTEGER,
    status TEXT NOT NULL DEFAULT 'NEW',
    review_count INTEGER NOT NULL DEFAULT 0,
    correct_count INTEGER NOT NULL DEFAULT 0,
    incorrect_count INTEGER NOT NULL DEFAULT 0,
    last_reviewed_at DATETIME,
    next_review_at DATETIME,
    favorite INTEGER NOT NULL DEFAULT 0,
    note TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL DEFAULT 0,

    UNIQUE(user_id, hash),
    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS corrections (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    request_key TEXT NOT NULL,
    origin TEXT NOT NULL,
    corrected TEXT NOT NULL,
    feedback TEXT NOT NULL DEFAULT '',
    feedback_type TEXT NOT NULL,
    score INTEGER NOT NULL,
    origin_translation TEXT NOT NULL DEFAULT '',
    corrected_translation TEXT NOT NULL DEFAULT '',
    favorite INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS corrections_user ON corrections(user_id, favorite);

CREATE TABLE IF NOT EXISTS related_examples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    correction_id INTEGER NOT NULL,
    phrase TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    source_type TEXT NOT NULL DEFAULT 'OTHER',
    context TEXT NOT NULL DEFAULT '',
    difficulty INTEGER NOT NULL DEFAULT 5,
    tags TEXT NOT NULL DEFAULT '[]', -- JSON array

    FOREIGN KEY(correction_id) REFERENCES corrections(id) ON DELETE CASCADE
);

-- Append-only log of sentence reviews.
CREATE TABLE IF NOT EXISTS review_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    correction_id INTEGER NOT NULL,
    answer TEXT NOT NULL,
    correct INTEGER NOT NULL,
    score INTEGER NOT NULL,
    time_spent_ms INTEGER NOT NULL DEFAULT 0,
    reviewed_at DATETIME NOT NULL,

    FOREIGN KEY(correction_id) REFERENCES corrections(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS review_events_item ON review_events(user_id, correction_id, reviewed_at);
`
