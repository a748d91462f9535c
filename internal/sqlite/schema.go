package sqlite

// Schema DDL. Statements are idempotent so Attach can run them against an
// existing database.
const (
	createCores = `CREATE TABLE IF NOT EXISTS cores (
    core_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    constants TEXT NOT NULL,
    budget TEXT NOT NULL,
    steps INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createLayers = `CREATE TABLE IF NOT EXISTS layers (
    core_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    top REAL NOT NULL,
    bottom REAL NOT NULL,
    biomass REAL NOT NULL,
    labile REAL NOT NULL,
    refractory REAL NOT NULL,
    inorganic REAL NOT NULL,
    anchor REAL NOT NULL,
    live_top REAL NOT NULL,
    live_bottom REAL NOT NULL,
    PRIMARY KEY (core_id, position),
    FOREIGN KEY (core_id) REFERENCES cores(core_id) ON DELETE CASCADE
);`

	createSteps = `CREATE TABLE IF NOT EXISTS steps (
    core_id TEXT NOT NULL,
    step INTEGER NOT NULL,
    input TEXT NOT NULL,
    elevation REAL NOT NULL,
    layer_count INTEGER NOT NULL,
    applied_at TEXT NOT NULL,
    PRIMARY KEY (core_id, step),
    FOREIGN KEY (core_id) REFERENCES cores(core_id) ON DELETE CASCADE
);`
)

const (
	idxCoresName = `CREATE INDEX IF NOT EXISTS idx_cores_name ON cores(name);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCores,
	createLayers,
	createSteps,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxCoresName,
}
