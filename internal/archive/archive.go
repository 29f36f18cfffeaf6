// Package archive stores the results of analysis runs in a SQL database. It is a write-only
// sink: nothing stored here feeds back into a pipeline run.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agile-metrics/internal/stats"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver
)

// Backend names a database engine.
type Backend string

const (
	BackendNone     Backend = "none"
	BackendSQLite   Backend = "sqlite"
	BackendMySQL    Backend = "mysql"
	BackendPostgres Backend = "postgres"
)

// Table names.
const (
	runsTable    = "agile_runs"
	sprintsTable = "agile_sprint_metrics"
)

// ParseBackend accepts a backend name; the empty string means none.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return BackendNone, nil
	case "sqlite", "sqlite3":
		return BackendSQLite, nil
	case "mysql":
		return BackendMySQL, nil
	case "postgres", "postgresql", "pgx":
		return BackendPostgres, nil
	}
	return "", fmt.Errorf("unsupported archive backend %q", s)
}

// Store writes runs to one database.
type Store struct {
	db      *sql.DB
	backend Backend
}

// Open connects to the archive database and creates its tables. Backend none returns a
// store whose writes do nothing.
func Open(backend, dsn string) (*Store, error) {
	b, err := ParseBackend(backend)
	if err != nil {
		return nil, err
	}

	var driverName string
	switch b {
	case BackendNone:
		return &Store{backend: b}, nil
	case BackendSQLite:
		driverName = "sqlite"
		if dsn == "" {
			return nil, fmt.Errorf("sqlite archive needs a database file path")
		}
	case BackendMySQL:
		driverName = "mysql"
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid MySQL connection string: %w. Expected user:password@tcp(host:port)/dbname", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	case BackendPostgres:
		driverName = "pgx"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s archive: %w", b, err)
	}
	if b == BackendSQLite {
		// Single writer avoids "database is locked".
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s archive: %w", b, err)
	}

	s := &Store{db: db, backend: b}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create archive tables: %w", err)
	}
	log.Debug().Str("backend", string(b)).Msg("Archive opened")
	return s, nil
}

// Enabled reports whether runs are actually stored.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) createTables() error {
	for _, q := range []string{s.createRunsQuery(), s.createSprintsQuery()} {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) createRunsQuery() string {
	ts, num := "TEXT", "REAL"
	switch s.backend {
	case BackendMySQL:
		ts, num = "DATETIME(6)", "DOUBLE"
	case BackendPostgres:
		ts, num = "TIMESTAMPTZ", "DOUBLE PRECISION"
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id CHAR(36) PRIMARY KEY,
			team VARCHAR(255) NOT NULL,
			variant VARCHAR(32) NOT NULL,
			team_size INT NOT NULL,
			created_at %s NOT NULL,
			total_sprints INT NOT NULL,
			total_tasks INT NOT NULL,
			total_delivered INT NOT NULL,
			avg_throughput %[3]s,
			avg_velocity %[3]s,
			avg_cycle_time %[3]s,
			avg_predictability %[3]s,
			avg_efficiency %[3]s,
			avg_rework %[3]s
		)`, s.quote(runsTable), ts, num)
}

func (s *Store) createSprintsQuery() string {
	num := "REAL"
	switch s.backend {
	case BackendMySQL:
		num = "DOUBLE"
	case BackendPostgres:
		num = "DOUBLE PRECISION"
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id CHAR(36) NOT NULL,
			sprint VARCHAR(255) NOT NULL,
			month VARCHAR(64),
			total_tasks INT NOT NULL,
			throughput INT NOT NULL,
			committed_points %[2]s NOT NULL,
			velocity %[2]s NOT NULL,
			cycle_time_avg %[2]s,
			predictability %[2]s,
			efficiency %[2]s,
			rework %[2]s,
			PRIMARY KEY (run_id, sprint)
		)`, s.quote(sprintsTable), num)
}

func (s *Store) quote(name string) string {
	if s.backend == BackendMySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.backend != BackendPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// SaveRun stores the summary of one team run and its sprint rows in a single transaction
// and returns the run id. A disabled store returns uuid.Nil.
func (s *Store) SaveRun(ctx context.Context, team string, a *stats.Analysis) (uuid.UUID, error) {
	if !s.Enabled() {
		return uuid.Nil, nil
	}

	id := uuid.New()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sum := a.Summary
	runQuery := s.rebind(fmt.Sprintf(`INSERT INTO %s (run_id, team, variant, team_size, created_at,
		total_sprints, total_tasks, total_delivered, avg_throughput, avg_velocity, avg_cycle_time,
		avg_predictability, avg_efficiency, avg_rework) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.quote(runsTable)))
	if _, err := tx.ExecContext(ctx, runQuery,
		id.String(), team, string(a.Variant), sum.TeamSize, time.Now().UTC(),
		sum.TotalSprints, sum.TotalTasks, sum.TotalDelivered,
		sum.AvgThroughput, sum.AvgVelocity, sum.AvgCycleTime,
		sum.AvgPredictability, sum.AvgEfficiency, sum.AvgRework,
	); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}

	sprintQuery := s.rebind(fmt.Sprintf(`INSERT INTO %s (run_id, sprint, month, total_tasks, throughput,
		committed_points, velocity, cycle_time_avg, predictability, efficiency, rework)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.quote(sprintsTable)))
	stmt, err := tx.PrepareContext(ctx, sprintQuery)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare sprint insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, sm := range a.Sprints {
		var month sql.NullString
		if sm.Month != "" {
			month = sql.NullString{String: sm.Month, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			id.String(), sm.Sprint, month, sm.TotalTasks, sm.Throughput,
			sm.CommittedPoints, sm.Velocity, sm.CycleTimeAvg, sm.Predictability, sm.Efficiency, sm.Rework,
		); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert sprint %s: %w", sm.Sprint, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit run: %w", err)
	}
	log.Info().Str("team", team).Str("run_id", id.String()).Int("sprints", len(a.Sprints)).Msg("Run archived")
	return id, nil
}
