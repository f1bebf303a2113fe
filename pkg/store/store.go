// Package store persists users, visitor profiles, sessions and bookings in
// Postgres. Schema migrations are embedded and applied on open.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations
var migrationsFS embed.FS

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so every query method
// works inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres persistence layer.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

// Open connects to Postgres, applies pending migrations and returns the store.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if err := migrate(databaseURL); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, db: pool}, nil
}

// migrate runs goose over the embedded migrations. Goose wants database/sql,
// so it gets its own short-lived connection through the pgx stdlib driver.
func migrate(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// WithTx runs fn against a transactional view of the store. The transaction
// commits when fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(*Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// User is one visitor identity row.
type User struct {
	ID            string
	VisitorID     *string
	Email         *string
	Name          *string
	TotalSessions int
	TotalBookings int
}

// Profile is the long-term view of a returning visitor.
type Profile struct {
	UserID       string
	Company      *string
	Domain       *string
	LastIntent   *string
	BookedBefore bool
	LastVisitAt  time.Time
}

// UpsertUserByVisitorID creates or refreshes the user keyed by visitor id.
// Email and name only overwrite when non-nil; a later anonymous visit must
// not erase what an earlier conversation collected.
func (s *Store) UpsertUserByVisitorID(ctx context.Context, id, visitorID string, email, name *string) (User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, visitor_id, email, name, last_seen_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (visitor_id) DO UPDATE SET
			email        = COALESCE(EXCLUDED.email, users.email),
			name         = COALESCE(EXCLUDED.name, users.name),
			last_seen_at = now()
		RETURNING id, visitor_id, email, name, total_sessions, total_bookings`,
		id, visitorID, email, name,
	)
	return scanUser(row)
}

// UpsertUserByEmail creates or refreshes the user keyed by email, for
// visitors with no stable visitor id.
func (s *Store) UpsertUserByEmail(ctx context.Context, id, email string, name *string) (User, error) {
	// email is not unique at the schema level, so the upsert is manual.
	row := s.db.QueryRow(ctx, `
		SELECT id, visitor_id, email, name, total_sessions, total_bookings
		FROM users WHERE email = $1
		ORDER BY created_at LIMIT 1`, email,
	)
	user, err := scanUser(row)
	if err == nil {
		_, err = s.db.Exec(ctx, `
			UPDATE users SET name = COALESCE($2, name), last_seen_at = now()
			WHERE id = $1`, user.ID, name)
		return user, err
	}
	if err != pgx.ErrNoRows {
		return User{}, err
	}

	row = s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, name, last_seen_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, visitor_id, email, name, total_sessions, total_bookings`,
		id, email, name,
	)
	return scanUser(row)
}

// IncrementSessionCount bumps the user's lifetime session counter.
func (s *Store) IncrementSessionCount(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET total_sessions = total_sessions + 1 WHERE id = $1`, userID)
	return err
}

// IncrementBookingCount bumps the user's lifetime booking counter.
func (s *Store) IncrementBookingCount(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET total_bookings = total_bookings + 1 WHERE id = $1`, userID)
	return err
}

// ProfileParams updates a user's long-term profile. Nil fields keep their
// stored values; BookedBefore only ever latches to true.
type ProfileParams struct {
	UserID       string
	Company      *string
	Domain       *string
	LastIntent   *string
	BookedBefore *bool
}

// UpsertProfile creates or refreshes the user's profile row.
func (s *Store) UpsertProfile(ctx context.Context, params ProfileParams) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, company, domain, last_intent_type, booked_before, last_visit_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, FALSE), now())
		ON CONFLICT (user_id) DO UPDATE SET
			company          = COALESCE(EXCLUDED.company, user_profiles.company),
			domain           = COALESCE(EXCLUDED.domain, user_profiles.domain),
			last_intent_type = COALESCE(EXCLUDED.last_intent_type, user_profiles.last_intent_type),
			booked_before    = user_profiles.booked_before OR COALESCE($5, FALSE),
			last_visit_at    = now()`,
		params.UserID, params.Company, params.Domain, params.LastIntent, params.BookedBefore,
	)
	return err
}

// ProfileByVisitorID loads the stored profile for a returning visitor.
// Returns nil without error when the visitor is unknown.
func (s *Store) ProfileByVisitorID(ctx context.Context, visitorID string) (*Profile, *User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT u.id, u.visitor_id, u.email, u.name, u.total_sessions, u.total_bookings,
		       p.company, p.domain, p.last_intent_type, p.booked_before, p.last_visit_at
		FROM users u
		JOIN user_profiles p ON p.user_id = u.id
		WHERE u.visitor_id = $1`, visitorID,
	)

	var (
		user    User
		profile Profile
	)
	err := row.Scan(
		&user.ID, &user.VisitorID, &user.Email, &user.Name, &user.TotalSessions, &user.TotalBookings,
		&profile.Company, &profile.Domain, &profile.LastIntent, &profile.BookedBefore, &profile.LastVisitAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	profile.UserID = user.ID
	return &profile, &user, nil
}

// SessionParams is one finished session row.
type SessionParams struct {
	ID           string
	UserID       string
	StartedAt    time.Time
	EndedAt      *time.Time
	DurationSec  *int
	BookingMade  bool
	R2ReportPath *string
}

// InsertSession records a finished session.
func (s *Store) InsertSession(ctx context.Context, params SessionParams) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, started_at, ended_at, duration_sec, booking_made, r2_report_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		params.ID, params.UserID, params.StartedAt, params.EndedAt,
		params.DurationSec, params.BookingMade, params.R2ReportPath,
	)
	return err
}

// BookingParams is one confirmed booking row.
type BookingParams struct {
	ID            string
	SessionID     string
	UserID        string
	ScheduledTime time.Time
	Timezone      *string
}

// InsertBooking records a confirmed booking.
func (s *Store) InsertBooking(ctx context.Context, params BookingParams) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (id, session_id, user_id, scheduled_time, timezone, status)
		VALUES ($1, $2, $3, $4, $5, 'scheduled')`,
		params.ID, params.SessionID, params.UserID, params.ScheduledTime, params.Timezone,
	)
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.VisitorID, &user.Email, &user.Name,
		&user.TotalSessions, &user.TotalBookings)
	return user, err
}
