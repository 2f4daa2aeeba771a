package ephemeris

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// Cache is a sqlite-backed store of resolved body states keyed by
// (name, formatted epoch, frame). Batch reruns over the same catalog
// objects skip the network round trip entirely.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS lookups (
			name         TEXT NOT NULL,
			epoch        TEXT NOT NULL,
			barycentric  INTEGER NOT NULL,
			mass         DOUBLE NOT NULL,
			x            DOUBLE NOT NULL,
			y            DOUBLE NOT NULL,
			z            DOUBLE NOT NULL,
			vx           DOUBLE NOT NULL,
			vy           DOUBLE NOT NULL,
			vz           DOUBLE NOT NULL,
			created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (name, epoch, barycentric)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

// Get returns the cached state for (name, epoch, frame), if present.
func (c *Cache) Get(name, epoch string, barycentric bool) (BodyState, bool, error) {
	state := BodyState{Name: name}
	row := c.db.QueryRow(`
		SELECT mass, x, y, z, vx, vy, vz FROM lookups
		WHERE name = ? AND epoch = ? AND barycentric = ?`,
		name, epoch, boolInt(barycentric))

	err := row.Scan(&state.Mass,
		&state.Position.X, &state.Position.Y, &state.Position.Z,
		&state.Velocity.X, &state.Velocity.Y, &state.Velocity.Z)
	if err == sql.ErrNoRows {
		return BodyState{}, false, nil
	}
	if err != nil {
		return BodyState{}, false, err
	}
	return state, true, nil
}

// Put stores a resolved state, replacing any previous entry for the key.
func (c *Cache) Put(name, epoch string, barycentric bool, state BodyState) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO lookups
			(name, epoch, barycentric, mass, x, y, z, vx, vy, vz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name, epoch, boolInt(barycentric), state.Mass,
		state.Position.X, state.Position.Y, state.Position.Z,
		state.Velocity.X, state.Velocity.Y, state.Velocity.Z)
	return err
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
