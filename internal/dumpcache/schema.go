package dumpcache

// schema contains the SQL statements to create the dump index cache schema.
const schema = `
-- Indexed types from one snapshot
CREATE TABLE IF NOT EXISTS types (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    name      TEXT NOT NULL,
    namespace TEXT,
    module    TEXT,
    kind      TEXT NOT NULL,
    base_type TEXT,
    line      INTEGER NOT NULL,
    sealed    INTEGER NOT NULL DEFAULT 0,
    abstract  INTEGER NOT NULL DEFAULT 0,
    static    INTEGER NOT NULL DEFAULT 0,
    friendly  TEXT
);

CREATE INDEX IF NOT EXISTS idx_types_name ON types(name);
CREATE INDEX IF NOT EXISTS idx_types_namespace ON types(namespace);
CREATE INDEX IF NOT EXISTS idx_types_module ON types(module);
CREATE INDEX IF NOT EXISTS idx_types_kind ON types(kind);

-- Metadata table for cache info (source path, build time, line count)
CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT
);
`
