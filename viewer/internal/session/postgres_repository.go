package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
	"github.com/Krimson/radar-scope/viewer/internal/series"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS radar_sessions (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	saved_at     TIMESTAMPTZ,
	series_count INTEGER NOT NULL DEFAULT 0,
	x_title      TEXT NOT NULL,
	y_title      TEXT NOT NULL,
	metadata     JSONB NOT NULL,
	bounds       JSONB NOT NULL,
	has_data     BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS radar_series (
	session_id TEXT NOT NULL REFERENCES radar_sessions(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	handle     TEXT NOT NULL,
	name       TEXT NOT NULL,
	points     JSONB NOT NULL,
	PRIMARY KEY (session_id, position)
);

CREATE INDEX IF NOT EXISTS idx_radar_sessions_created_at ON radar_sessions(created_at DESC);
`

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository wraps an open database. The tables must already exist.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// NewPostgresRepositoryFromDSN connects, configures the pool and creates the tables.
func NewPostgresRepositoryFromDSN(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ===== Sessions =====

// SaveSessionData upserts the session row and replaces all of its series in one transaction.
func (r *PostgresRepository) SaveSessionData(ctx context.Context, data *SessionData) error {
	session := data.Session

	metadataJSON, err := json.Marshal(session.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	boundsJSON, err := json.Marshal(data.State.Bounds)
	if err != nil {
		return fmt.Errorf("failed to marshal bounds: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO radar_sessions (id, status, created_at, updated_at, saved_at, series_count, x_title, y_title, metadata, bounds, has_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			saved_at = EXCLUDED.saved_at,
			series_count = EXCLUDED.series_count,
			x_title = EXCLUDED.x_title,
			y_title = EXCLUDED.y_title,
			metadata = EXCLUDED.metadata,
			bounds = EXCLUDED.bounds,
			has_data = EXCLUDED.has_data
	`

	_, err = tx.ExecContext(ctx, upsert,
		session.ID,
		session.Status,
		session.CreatedAt,
		session.UpdatedAt,
		session.SavedAt,
		session.SeriesCount,
		data.State.XTitle,
		data.State.YTitle,
		metadataJSON,
		boundsJSON,
		data.State.HasData,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM radar_series WHERE session_id = $1", session.ID); err != nil {
		return fmt.Errorf("failed to clear series: %w", err)
	}

	if len(data.State.Series) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO radar_series (session_id, position, handle, name, points)
			VALUES ($1, $2, $3, $4, $5)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, s := range data.State.Series {
			pointsJSON, err := json.Marshal(s.Points)
			if err != nil {
				return fmt.Errorf("failed to marshal points of %s: %w", s.Name, err)
			}
			if _, err := stmt.ExecContext(ctx, session.ID, i, s.Handle.String(), s.Name, pointsJSON); err != nil {
				return fmt.Errorf("failed to insert series: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	session, _, err := r.getSessionRow(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// getSessionRow reads the session row together with the stored chart header.
func (r *PostgresRepository) getSessionRow(ctx context.Context, sessionID string) (*Session, *chart.State, error) {
	query := `
		SELECT id, status, created_at, updated_at, saved_at, series_count, x_title, y_title, metadata, bounds, has_data
		FROM radar_sessions
		WHERE id = $1
	`

	var session Session
	var state chart.State
	var metadataJSON, boundsJSON []byte

	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.SavedAt,
		&session.SeriesCount,
		&session.XTitle,
		&session.YTitle,
		&metadataJSON,
		&boundsJSON,
		&state.HasData,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal(metadataJSON, &session.Metadata); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal(boundsJSON, &state.Bounds); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal bounds: %w", err)
	}
	state.XTitle, state.YTitle = session.XTitle, session.YTitle

	return &session, &state, nil
}

func (r *PostgresRepository) GetSessionData(ctx context.Context, sessionID string) (*SessionData, error) {
	session, state, err := r.getSessionRow(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT handle, name, points
		FROM radar_series
		WHERE session_id = $1
		ORDER BY position ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var handle, name string
		var pointsJSON []byte
		if err := rows.Scan(&handle, &name, &pointsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}

		stored := chart.StoredSeries{Series: series.Series{Name: name}}
		if err := stored.Handle.UnmarshalText([]byte(handle)); err != nil {
			return nil, fmt.Errorf("invalid series handle %q: %w", handle, err)
		}
		if err := json.Unmarshal(pointsJSON, &stored.Points); err != nil {
			return nil, fmt.Errorf("failed to unmarshal points of %s: %w", name, err)
		}
		state.Series = append(state.Series, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read series: %w", err)
	}

	return &SessionData{Session: session, State: *state}, nil
}

func (r *PostgresRepository) ListSessions(ctx context.Context, limit, offset int) ([]*Session, error) {
	query := `
		SELECT id, status, created_at, updated_at, saved_at, series_count, x_title, y_title, metadata
		FROM radar_sessions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session

	for rows.Next() {
		var session Session
		var metadataJSON []byte

		err := rows.Scan(
			&session.ID,
			&session.Status,
			&session.CreatedAt,
			&session.UpdatedAt,
			&session.SavedAt,
			&session.SeriesCount,
			&session.XTitle,
			&session.YTitle,
			&metadataJSON,
		)
		if err != nil {
			continue
		}

		if err := json.Unmarshal(metadataJSON, &session.Metadata); err == nil {
			sessions = append(sessions, &session)
		}
	}

	return sessions, nil
}

func (r *PostgresRepository) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM radar_series WHERE session_id = $1", sessionID); err != nil {
		return fmt.Errorf("failed to delete series: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM radar_sessions WHERE id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
