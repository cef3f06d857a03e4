// Package store provides SessionStore implementations: a bun/sqlite-backed
// durable slot for real deployments and an in-memory slot for tests and
// ephemeral hosts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	herodb "github.com/rongrafil/superhero-database-auth"
)

// currentSessionKey is the single durable slot: one session at most.
const currentSessionKey = "current-session"

type sessionRow struct {
	bun.BaseModel `bun:"table:session_slots,alias:ss"`

	Key       string    `bun:"key,pk"`
	Value     []byte    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Bun persists the current session as a single keyed row.
type Bun struct {
	db *bun.DB
}

var _ herodb.SessionStore = &Bun{}

// OpenSQLite opens (creating if needed) a sqlite database at path and wraps
// it in a bun.DB. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewBun wraps an existing bun.DB. Call EnsureTable before first use.
func NewBun(db *bun.DB) *Bun {
	return &Bun{db: db}
}

// EnsureTable creates the session slot table if it does not exist.
func (s *Bun) EnsureTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*sessionRow)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Load implements herodb.SessionStore. Returns (nil, nil) when the slot is empty.
func (s *Bun) Load(ctx context.Context) (*herodb.Session, error) {
	row := sessionRow{}
	err := s.db.NewSelect().
		Model(&row).
		Where("key = ?", currentSessionKey).
		Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session slot: %w", err)
	}

	session := &herodb.Session{}
	if err := json.Unmarshal(row.Value, session); err != nil {
		return nil, fmt.Errorf("failed to decode stored session: %w", err)
	}
	return session, nil
}

// Save implements herodb.SessionStore, replacing any previous value.
func (s *Bun) Save(ctx context.Context, session *herodb.Session) error {
	if session == nil {
		return s.Delete(ctx)
	}

	value, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	row := sessionRow{
		Key:       currentSessionKey,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	_, err = s.db.NewInsert().
		Model(&row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to write session slot: %w", err)
	}
	return nil
}

// Delete implements herodb.SessionStore. Deleting an empty slot is a no-op.
func (s *Bun) Delete(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*sessionRow)(nil)).
		Where("key = ?", currentSessionKey).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear session slot: %w", err)
	}
	return nil
}
