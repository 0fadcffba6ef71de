package checkout

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/fjod/storefront/internal/events"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c Credentials) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(ctx context.Context, cred Credentials) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", cred.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func NewPostgresRepositoryFromDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// RunMigrations applies the embedded schema migrations.
func (r *PostgresRepository) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

const (
	selectBySessionQuery = `SELECT state FROM checkout_sessions WHERE session_id = $1`
	selectByKeyQuery     = `SELECT state FROM checkout_sessions WHERE idempotency_key = $1`
	deleteSessionQuery   = `DELETE FROM checkout_sessions WHERE session_id = $1`
	upsertSessionQuery   = `
		INSERT INTO checkout_sessions (id, session_id, status, step, idempotency_key, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			step = EXCLUDED.step,
			idempotency_key = EXCLUDED.idempotency_key,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`
	insertEventQuery = `
		INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)`
	pendingEventsQuery = `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1`
	markPublishedQuery = `UPDATE outbox_events SET published_at = NOW() WHERE id = $1`
)

func (r *PostgresRepository) Get(ctx context.Context, sessionID string) (*Session, error) {
	return r.selectOne(ctx, selectBySessionQuery, sessionID, ErrSessionNotFound)
}

func (r *PostgresRepository) FindByIdempotencyKey(ctx context.Context, key string) (*Session, error) {
	if key == "" {
		return nil, ErrIdempotencyKeyNotFound
	}
	return r.selectOne(ctx, selectByKeyQuery, key, ErrIdempotencyKeyNotFound)
}

func (r *PostgresRepository) selectOne(ctx context.Context, query, arg string, notFound error) (*Session, error) {
	var state []byte
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	return &s, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, s *Session) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode checkout session: %w", err)
	}
	key := sql.NullString{String: s.IdempotencyKey, Valid: s.IdempotencyKey != ""}

	_, err = db.ExecContext(ctx, upsertSessionQuery,
		s.ID, s.SessionID, string(s.Status), int(s.Step), key, state, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save checkout session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, s *Session) error {
	return upsert(ctx, r.db, s)
}

func (r *PostgresRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, deleteSessionQuery, sessionID); err != nil {
		return fmt.Errorf("failed to delete checkout session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Complete(ctx context.Context, s *Session, event events.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsert(ctx, tx, s); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insertEventQuery,
		event.AggregateID, event.EventType, event.Payload, event.CreatedAt); err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout completion: %w", err)
	}
	return nil
}

func (r *PostgresRepository) PendingEvents(ctx context.Context, limit int) ([]events.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, pendingEventsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var out []events.OutboxEvent
	for rows.Next() {
		var e events.OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) MarkEventPublished(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, markPublishedQuery, id); err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
