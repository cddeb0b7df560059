package fixture

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/flowkit/logger"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

type dbOptions struct {
	log           *logger.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
}

// Option configures OpenSQLite.
type Option func(*dbOptions)

// WithLogger routes GORM logs to l.
func WithLogger(l *logger.Logger) Option {
	return func(o *dbOptions) { o.log = l }
}

// WithLogLevel sets the GORM log level: silent, error, warn or info.
func WithLogLevel(level string) Option {
	return func(o *dbOptions) { o.logLevel = parseLogLevel(level) }
}

// OpenSQLite opens dsn with the SQLite driver. The pool is pinned to one
// connection because every connection to ":memory:" sees its own database.
func OpenSQLite(dsn string, opts ...Option) (*gorm.DB, error) {
	o := dbOptions{logLevel: gormlogger.Warn, slowThreshold: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("fixture")
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(o.log, o.slowThreshold, o.logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// CloseDB closes the connection pool behind db.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func parseLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
