package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/entities"
)

// Dialect names the relational backend behind a Database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Database struct {
	DB      *gorm.DB
	Dialect Dialect
}

// ParseURL picks the dialect for a DATABASE_URL value and returns the DSN to hand
// to the driver. Anything that is not a postgres URL is treated as a SQLite path.
func ParseURL(databaseURL string) (Dialect, string) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL
	case strings.HasPrefix(databaseURL, "sqlite://"):
		databaseURL = strings.TrimPrefix(databaseURL, "sqlite://")
	}

	if databaseURL == "" {
		databaseURL = ":memory:"
	}
	if !strings.Contains(databaseURL, "?") {
		databaseURL += "?_foreign_keys=on&_busy_timeout=5000"
	}
	return DialectSQLite, databaseURL
}

func NewDatabase(databaseURL string, logLevel logger.LogLevel) (*Database, error) {
	dialect, dsn := ParseURL(databaseURL)

	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == DialectPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully (%s)", dialect)

	return &Database{DB: db, Dialect: dialect}, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.BookAnalytics{},
		&entities.ClickEvent{},
	)
}

// IsSQLite reports whether the database is backed by SQLite.
func (d *Database) IsSQLite() bool {
	return d.Dialect == DialectSQLite
}

// Ping checks connectivity to the database.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
