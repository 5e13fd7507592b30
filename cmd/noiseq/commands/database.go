package commands

import (
	"database/sql"

	"github.com/seismolab/noiseq/db"
	"github.com/seismolab/noiseq/errors"
	"github.com/seismolab/noiseq/logger"
	"github.com/seismolab/noiseq/params"
)

// openDatabase opens and migrates the job database. If dbPath is empty the
// configured path is used.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		cfg, err := params.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration")
		}
		dbPath = cfg.Database.Path
		if dbPath == "" {
			dbPath = "noiseq.db"
		}
	}

	database, err := db.Open(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, errors.Wrapf(err, "failed to run migrations on %s", dbPath)
	}

	return database, nil
}
