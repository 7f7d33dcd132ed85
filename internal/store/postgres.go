package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS simulations (
		id               UUID PRIMARY KEY,
		kind             TEXT NOT NULL,
		value            DOUBLE PRECISION NOT NULL,
		text             TEXT NOT NULL,
		trials           INTEGER NOT NULL,
		matches          INTEGER NOT NULL,
		ratio            DOUBLE PRECISION NOT NULL,
		expected         DOUBLE PRECISION NOT NULL,
		deviation        DOUBLE PRECISION NOT NULL,
		batch_mean       DOUBLE PRECISION NOT NULL,
		batch_std_dev    DOUBLE PRECISION NOT NULL,
		tolerance        DOUBLE PRECISION NOT NULL,
		within_tolerance BOOLEAN NOT NULL,
		seed             TEXT,
		created_at       TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS simulations_created_at_idx ON simulations (created_at DESC);
`

const selectColumns = `
	SELECT id, kind, value, text, trials, matches, ratio, expected, deviation,
		batch_mean, batch_std_dev, tolerance, within_tolerance, seed, created_at
	FROM simulations
`

// Postgres implements SimulationStore for PostgreSQL
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool for dsn
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Postgres{db: db}, nil
}

// NewPostgresFromDB wraps an existing pool
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Ping checks database connectivity
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the pool
func (p *Postgres) Close() error {
	return p.db.Close()
}

// EnsureSchema creates the simulations table if needed
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save inserts a simulation result
func (p *Postgres) Save(ctx context.Context, r *models.SimulationResult) error {
	query := `
		INSERT INTO simulations (
			id, kind, value, text, trials, matches, ratio, expected, deviation,
			batch_mean, batch_std_dev, tolerance, within_tolerance, seed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	var seed sql.NullString
	if r.Seed != nil {
		seed = sql.NullString{String: strconv.FormatUint(*r.Seed, 10), Valid: true}
	}

	_, err := p.db.ExecContext(ctx, query,
		r.ID,
		r.Kind,
		float64(r.Value),
		r.Text,
		r.Trials,
		r.Matches,
		r.Ratio,
		r.Expected,
		r.Deviation,
		r.BatchMean,
		r.BatchStdDev,
		r.Tolerance,
		r.WithinTolerance,
		seed,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert simulation: %w", err)
	}
	return nil
}

// Get returns one simulation by ID
func (p *Postgres) Get(ctx context.Context, id string) (*models.SimulationResult, error) {
	row := p.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)

	r, err := scanSimulation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get simulation %s: %w", id, err)
	}
	return r, nil
}

// List returns the most recent simulations
func (p *Postgres) List(ctx context.Context, limit int) ([]*models.SimulationResult, error) {
	rows, err := p.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	defer rows.Close()

	results := []*models.SimulationResult{}
	for rows.Next() {
		r, err := scanSimulation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulations: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSimulation(s scanner) (*models.SimulationResult, error) {
	var (
		r     models.SimulationResult
		value float64
		seed  sql.NullString
	)

	err := s.Scan(
		&r.ID,
		&r.Kind,
		&value,
		&r.Text,
		&r.Trials,
		&r.Matches,
		&r.Ratio,
		&r.Expected,
		&r.Deviation,
		&r.BatchMean,
		&r.BatchStdDev,
		&r.Tolerance,
		&r.WithinTolerance,
		&seed,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Value = models.Float(value)
	if seed.Valid {
		v, err := strconv.ParseUint(seed.String, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse seed %q: %w", seed.String, err)
		}
		r.Seed = &v
	}
	return &r, nil
}
