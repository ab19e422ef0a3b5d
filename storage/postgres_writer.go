package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"appointment-checker/models"
)

// PostgresWriter persists the run history to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS availability_checks (
			id              SERIAL PRIMARY KEY,
			city            TEXT        NOT NULL,
			available       BOOLEAN     NOT NULL,
			available_dates TEXT        NOT NULL DEFAULT '',
			time_slots      TEXT        NOT NULL DEFAULT '',
			degraded_run    BOOLEAN     NOT NULL DEFAULT FALSE,
			checked_at      TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_checks_city       ON availability_checks(city);
		CREATE INDEX IF NOT EXISTS idx_checks_available  ON availability_checks(available);
		CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON availability_checks(checked_at);
	`)
	return err
}

// WriteRun batch-inserts every location result of one run.
func (pw *PostgresWriter) WriteRun(results []*models.LocationResult, summary *models.RunSummary) error {
	if len(results) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(results); i += batchSize {
		end := i + batchSize
		if end > len(results) {
			end = len(results)
		}
		if err := pw.insertBatch(results[i:end], summary.Degraded); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.LocationResult, degraded bool) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*6)

	for idx, r := range batch {
		base := idx * 6
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))

		slots := make([]string, 0, len(r.TimeSlots))
		for _, s := range r.TimeSlots {
			slots = append(slots, s.DisplayValue)
		}
		valueArgs = append(valueArgs,
			r.CityName, r.IsAvailable,
			strings.Join(r.AvailableDates, "|"), strings.Join(slots, "|"),
			degraded, r.CheckedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO availability_checks (city, available, available_dates, time_slots, degraded_run, checked_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// FetchRecent returns the most recent check rows, newest first.
func (pw *PostgresWriter) FetchRecent(limit int) ([]*models.LocationResult, error) {
	rows, err := pw.db.Query(`
		SELECT city, available, available_dates, checked_at
		FROM availability_checks
		ORDER BY checked_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch recent: %w", err)
	}
	defer rows.Close()

	var results []*models.LocationResult
	for rows.Next() {
		var r models.LocationResult
		var dates string
		if err := rows.Scan(&r.CityName, &r.IsAvailable, &dates, &r.CheckedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		if dates != "" {
			r.AvailableDates = strings.Split(dates, "|")
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// Close closes the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
