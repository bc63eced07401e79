// Package warehouse appends one summary row per optimization run to a
// Postgres or Snowflake table for reporting.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"                  // Postgres driver
	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver

	"github.com/ignite/ppc-optimizer/internal/config"
	"github.com/ignite/ppc-optimizer/internal/storage"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

// Sink writes run records into the warehouse table.
type Sink struct {
	db     *sql.DB
	driver string
	table  string
}

// Open connects to the warehouse configured in cfg.
func Open(cfg config.WarehouseConfig) (*Sink, error) {
	driver := strings.ToLower(cfg.Driver)
	dsn := cfg.DSN
	switch driver {
	case "postgres":
	case "snowflake":
		dsn = SnowflakeDSN(dsn)
	default:
		return nil, fmt.Errorf("unknown warehouse driver %q", cfg.Driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s warehouse connection: %w", driver, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	s, err := NewSink(db, driver, cfg.Table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSink wraps an open connection. driver selects the placeholder style.
func NewSink(db *sql.DB, driver, table string) (*Sink, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid warehouse table name %q", table)
	}
	return &Sink{db: db, driver: driver, table: table}, nil
}

// Close closes the database connection
func (s *Sink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// EnsureTable creates the run table when it is missing.
func (s *Sink) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (
		run_id          VARCHAR(64) PRIMARY KEY,
		client_id       VARCHAR(255),
		source_file     VARCHAR(512),
		strategy        VARCHAR(32),
		target_acos     DOUBLE PRECISION,
		good            INTEGER,
		bad             INTEGER,
		pause           INTEGER,
		increases       INTEGER,
		decreases       INTEGER,
		skipped         INTEGER,
		total_bid_delta DOUBLE PRECISION,
		created_at      TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create warehouse table: %w", err)
	}
	return nil
}

// Record inserts one run.
func (s *Sink) Record(ctx context.Context, rec storage.RunRecord) error {
	q := `INSERT INTO ` + s.table + ` (run_id, client_id, source_file, strategy, target_acos,
		good, bad, pause, increases, decreases, skipped, total_bid_delta, created_at)
		VALUES (` + s.placeholders(13) + `)`
	_, err := s.db.ExecContext(ctx, q,
		rec.RunID, rec.ClientID, rec.SourceFile, rec.Strategy, rec.TargetACOS,
		rec.Good, rec.Bad, rec.Pause, rec.Increases, rec.Decreases, rec.Skipped,
		rec.TotalBidDelta, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.RunID, err)
	}
	return nil
}

// placeholders returns "$1, $2, ..." for Postgres and "?, ?, ..." otherwise.
func (s *Sink) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if s.driver == "postgres" {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// SnowflakeDSN accepts either a gosnowflake DSN or a connection string of
// the form ACCOUNT=xxx;USER=yyy;PASSWORD=zzz;DB=aaa;SCHEMA=bbb;WAREHOUSE=ccc
// and returns a DSN. Keys are case-insensitive.
func SnowflakeDSN(connStr string) string {
	if !strings.Contains(connStr, ";") || !strings.Contains(connStr, "=") {
		return connStr
	}
	parts := make(map[string]string)
	for _, kv := range strings.Split(connStr, ";") {
		if idx := strings.IndexByte(kv, '='); idx > 0 {
			parts[strings.ToUpper(strings.TrimSpace(kv[:idx]))] = strings.TrimSpace(kv[idx+1:])
		}
	}

	// Format: user:password@account/database/schema?warehouse=xxx
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s",
		parts["USER"],
		parts["PASSWORD"],
		parts["ACCOUNT"],
		firstOf(parts, "DB", "DATABASE"),
		parts["SCHEMA"],
	)
	if wh := parts["WAREHOUSE"]; wh != "" {
		dsn += "?warehouse=" + wh
	}
	return dsn
}

func firstOf(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
