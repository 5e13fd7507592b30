package station

import (
	"context"
	"database/sql"

	"github.com/seismolab/noiseq/errors"
)

// Store persists the station inventory in the shared SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore creates a station store over the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert adds a station to the inventory, enabled. Inserting an existing
// (net, sta) is an error.
func (s *Store) Insert(ctx context.Context, st *Station) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stations (net, sta, lat, lon, enabled) VALUES (?, ?, ?, ?, 1)`,
		st.Net, st.Sta, st.Lat, st.Lon)
	if err != nil {
		return errors.Wrapf(err, "failed to insert station %s", st.Code())
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get station ID")
	}
	st.ID = id
	st.Enabled = true
	return nil
}

// Get returns one station by code, or ErrNotFound.
func (s *Store) Get(ctx context.Context, net, sta string) (*Station, error) {
	var st Station
	var enabled int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, net, sta, lat, lon, enabled FROM stations WHERE net = ? AND sta = ?`,
		net, sta).Scan(&st.ID, &st.Net, &st.Sta, &st.Lat, &st.Lon, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "station %s.%s", net, sta)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get station")
	}
	st.Enabled = enabled != 0
	return &st, nil
}

// SetEnabled marks a station in or out of the active inventory. Disabled
// stations keep their rows and history but stop producing new jobs.
func (s *Store) SetEnabled(ctx context.Context, net, sta string, enabled bool) error {
	val := 0
	if enabled {
		val = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE stations SET enabled = ? WHERE net = ? AND sta = ?`, val, net, sta)
	if err != nil {
		return errors.Wrapf(err, "failed to update station %s.%s", net, sta)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "station %s.%s", net, sta)
	}
	return nil
}

// List returns the whole inventory ordered by code.
func (s *Store) List(ctx context.Context) ([]Station, error) {
	return s.list(ctx, `SELECT id, net, sta, lat, lon, enabled FROM stations ORDER BY net, sta`)
}

// ListEnabled returns the active inventory ordered by code.
func (s *Store) ListEnabled(ctx context.Context) ([]Station, error) {
	return s.list(ctx, `SELECT id, net, sta, lat, lon, enabled FROM stations WHERE enabled = 1 ORDER BY net, sta`)
}

func (s *Store) list(ctx context.Context, query string) ([]Station, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stations")
	}
	defer rows.Close()

	var out []Station
	for rows.Next() {
		var st Station
		var enabled int
		if err := rows.Scan(&st.ID, &st.Net, &st.Sta, &st.Lat, &st.Lon, &enabled); err != nil {
			return nil, errors.Wrap(err, "failed to scan station")
		}
		st.Enabled = enabled != 0
		out = append(out, st)
	}
	return out, rows.Err()
}

// Delete removes a station from the inventory. The caller is responsible
// for cleaning up the station's jobs (see jobs.Store.DeleteByPair).
func (s *Store) Delete(ctx context.Context, net, sta string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM stations WHERE net = ? AND sta = ?`, net, sta)
	if err != nil {
		return errors.Wrapf(err, "failed to delete station %s.%s", net, sta)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "station %s.%s", net, sta)
	}
	return nil
}
