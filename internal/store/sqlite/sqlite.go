package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/boardsync/boardsync-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	is_guest     BOOLEAN NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	owner_id      TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS room_roles (
	room_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	role    TEXT NOT NULL,
	PRIMARY KEY (room_id, user_id)
);

CREATE TABLE IF NOT EXISTS room_bans (
	room_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (room_id, user_id)
);

CREATE TABLE IF NOT EXISTS canvas_snapshots (
	room_id    TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function after
// the schema is applied. Useful for tests to seed fixtures.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}

	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateGuestUser creates a temporary guest user.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, id, displayName string) (*store.User, error) {
	query := `
		INSERT INTO users (id, display_name, is_guest)
		VALUES (?, ?, 1)
	`
	if _, err := s.db.ExecContext(ctx, query, id, displayName); err != nil {
		return nil, fmt.Errorf("create guest user: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	query := `
		SELECT id, display_name, is_guest, created_at
		FROM users WHERE id = ?
	`
	var u store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.DisplayName, &u.IsGuest, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ==== RoomStore implementation ====

// CreateRoom creates room metadata.
func (s *SQLiteStore) CreateRoom(ctx context.Context, id, name, passwordHash, ownerID string) (*store.Room, error) {
	query := `
		INSERT INTO rooms (id, name, password_hash, owner_id)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, id, name, passwordHash, ownerID); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return s.GetRoomByID(ctx, id)
}

// GetRoomByID retrieves a room by ID.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id string) (*store.Room, error) {
	query := `
		SELECT id, name, password_hash, owner_id, created_at
		FROM rooms WHERE id = ?
	`
	var r store.Room
	err := s.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.Name, &r.PasswordHash, &r.OwnerID, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &r, nil
}

// ListRooms lists all rooms ordered by creation time.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	query := `
		SELECT id, name, password_hash, owner_id, created_at
		FROM rooms ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		var r store.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.PasswordHash, &r.OwnerID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &r)
	}
	return rooms, rows.Err()
}

// DeleteRoom removes room metadata along with its roles, bans and snapshot.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete room: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM room_roles WHERE room_id = ?`,
		`DELETE FROM room_bans WHERE room_id = ?`,
		`DELETE FROM canvas_snapshots WHERE room_id = ?`,
		`DELETE FROM rooms WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete room: %w", err)
		}
	}
	return tx.Commit()
}

// SetRoomRole records a pre-assigned role for a user in a room.
func (s *SQLiteStore) SetRoomRole(ctx context.Context, roomID, userID, role string) error {
	query := `
		INSERT INTO room_roles (room_id, user_id, role)
		VALUES (?, ?, ?)
		ON CONFLICT(room_id, user_id) DO UPDATE SET role = excluded.role
	`
	if _, err := s.db.ExecContext(ctx, query, roomID, userID, role); err != nil {
		return fmt.Errorf("set room role: %w", err)
	}
	return nil
}

// GetRoomRole returns the pre-assigned role, or "" when none exists.
func (s *SQLiteStore) GetRoomRole(ctx context.Context, roomID, userID string) (string, error) {
	query := `SELECT role FROM room_roles WHERE room_id = ? AND user_id = ?`
	var role string
	err := s.db.QueryRowContext(ctx, query, roomID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get room role: %w", err)
	}
	return role, nil
}

// AddBan records that a user is banned from a room.
func (s *SQLiteStore) AddBan(ctx context.Context, roomID, userID string) error {
	query := `
		INSERT INTO room_bans (room_id, user_id)
		VALUES (?, ?)
		ON CONFLICT(room_id, user_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, roomID, userID); err != nil {
		return fmt.Errorf("add ban: %w", err)
	}
	return nil
}

// ListBans returns the banned user ids for a room.
func (s *SQLiteStore) ListBans(ctx context.Context, roomID string) ([]string, error) {
	query := `SELECT user_id FROM room_bans WHERE room_id = ?`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan ban: %w", err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

// ==== CanvasStore implementation ====

// SaveCanvas upserts the snapshot for a room.
func (s *SQLiteStore) SaveCanvas(ctx context.Context, roomID string, data []byte) error {
	query := `
		INSERT INTO canvas_snapshots (room_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, roomID, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("save canvas: %w", err)
	}
	return nil
}

// LoadCanvas returns the last saved snapshot, or (nil, nil) when absent.
func (s *SQLiteStore) LoadCanvas(ctx context.Context, roomID string) ([]byte, error) {
	query := `SELECT data FROM canvas_snapshots WHERE room_id = ?`
	var data []byte
	err := s.db.QueryRowContext(ctx, query, roomID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load canvas: %w", err)
	}
	return data, nil
}
