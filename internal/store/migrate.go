package store

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	postgresdriver "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	apperrors "github.com/Shih-Wei-Lin/Server-Monitor-System/internal/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies all pending schema migrations. Migrations are embedded in
// the binary so the daemon can be deployed as a single file.
func Migrate(connString string) error {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to open database connection", "")
	}
	defer db.Close()

	driver, err := postgresdriver.WithInstance(db, &postgresdriver.Config{})
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to create migration driver", "")
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to load embedded migrations", "")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to create migrator", "")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to apply migrations", "")
	}
	return nil
}
