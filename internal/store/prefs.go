package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matheus3301/melo/internal/domain"
)

// ErrCorruptIdentity is returned when the stored identity cannot be used.
// Callers treat it the same as a missing identity.
var ErrCorruptIdentity = errors.New("stored identity is corrupt")

// LoadIdentity returns the persisted identity, or nil when there is none.
func (db *DB) LoadIdentity(ctx context.Context) (*domain.Identity, error) {
	raw, ok, err := db.Get(ctx, KeyIdentity)
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var id domain.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIdentity, err)
	}
	if !id.Valid() {
		return nil, fmt.Errorf("%w: missing fields", ErrCorruptIdentity)
	}
	return &id, nil
}

// SaveIdentity persists id as JSON.
func (db *DB) SaveIdentity(ctx context.Context, id domain.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return db.Set(ctx, KeyIdentity, string(data))
}

// ClearIdentity removes the persisted identity.
func (db *DB) ClearIdentity(ctx context.Context) error {
	return db.Delete(ctx, KeyIdentity)
}

// Theme returns the saved theme, dark when unset or unreadable.
func (db *DB) Theme(ctx context.Context) domain.Theme {
	raw, _, err := db.Get(ctx, KeyTheme)
	if err != nil {
		return domain.ThemeDark
	}
	return domain.ParseTheme(raw)
}

// SetTheme persists the theme.
func (db *DB) SetTheme(ctx context.Context, t domain.Theme) error {
	return db.Set(ctx, KeyTheme, string(t))
}
