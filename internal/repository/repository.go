package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	litedriver "modernc.org/sqlite"
)

// SQLite's built-in lower only folds ASCII. Catalog matching is case
// insensitive for any script, as it is on postgres.
func init() {
	litedriver.MustRegisterDeterministicScalarFunction("lower", 1, unicodeLower)
}

func unicodeLower(_ *litedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Credentials struct {
	Driver            string
	Path              string // sqlite only
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
	QueryTimeout      time.Duration
}

func (c *Credentials) dsn() (string, error) {
	switch c.Driver {
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite", c.Path), nil
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host,
			c.Port,
			c.User,
			c.Password,
			c.DBName), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// Repository is the relational record store behind the catalog, the carts,
// the members and the orders. Every round trip is bounded by the configured
// query timeout.
type Repository struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
}

func NewRepository(cred *Credentials) (*Repository, error) {
	dsn, err := cred.dsn()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cred.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	if cred.Driver == DriverPostgres {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
	}

	return &Repository{db: db, driver: cred.Driver, timeout: cred.QueryTimeout}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	var (
		dbDriver database.Driver
		err      error
	)
	switch r.driver {
	case DriverPostgres:
		dbDriver, err = postgres.WithInstance(r.db, &postgres.Config{
			MigrationsTable: "bookstore_schema_migrations",
		})
	default:
		dbDriver, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		r.driver,
		dbDriver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return classify("ping", r.db.PingContext(ctx))
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
