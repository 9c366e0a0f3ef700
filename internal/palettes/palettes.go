// Package palettes stores user-created color palettes in the palettes store
// of the stash database. Palette records are persisted directly, keyed by
// their own ID.
package palettes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/prismkit/stash/internal/stash"
)

var (
	// ErrEmptyName rejects palettes without a display name.
	ErrEmptyName = errors.New("palette name is empty")

	// ErrNoColors rejects palettes without at least one color.
	ErrNoColors = errors.New("palette has no colors")

	// ErrBadColor rejects colors outside #rgb / #rrggbb hex notation.
	ErrBadColor = errors.New("color is not hex notation")

	// ErrNotSaved reports that storage did not commit the write. The
	// persistence layer degrades silently, so this is the only signal a
	// caller gets that a palette was not durably saved.
	ErrNotSaved = errors.New("palette not saved")
)

// Palette is one saved palette. ID doubles as the primary key in the store.
type Palette struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Colors    []string  `json:"colors"`
	CreatedAt time.Time `json:"created_at"`
}

// Library provides palette persistence over a stash DB.
type Library struct {
	db  *stash.DB
	now func() time.Time
}

// NewLibrary creates a Library over db.
func NewLibrary(db *stash.DB) *Library {
	return &Library{db: db, now: time.Now}
}

// Save validates and persists a new palette, returning the stored record.
// The name is normalized to NFC so two Unicode spellings of the same name
// compare equal.
func (l *Library) Save(ctx context.Context, name string, colors []string) (Palette, error) {
	name = norm.NFC.String(name)
	if name == "" {
		return Palette{}, ErrEmptyName
	}
	if len(colors) == 0 {
		return Palette{}, ErrNoColors
	}
	for _, c := range colors {
		if !validHexColor(c) {
			return Palette{}, fmt.Errorf("%w: %q", ErrBadColor, c)
		}
	}

	p := Palette{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      name,
		Colors:    colors,
		CreatedAt: l.now().UTC(),
	}
	if !l.db.Set(ctx, stash.StorePalettes, p.ID, p) {
		return Palette{}, ErrNotSaved
	}
	return p, nil
}

// Find returns the palette with the given ID. The second return is false
// when it does not exist or storage is unavailable.
func (l *Library) Find(ctx context.Context, id string) (Palette, bool) {
	return stash.GetAs[Palette](ctx, l.db, stash.StorePalettes, id)
}

// List returns all saved palettes, oldest first. Unavailable storage reads
// as an empty library.
func (l *Library) List(ctx context.Context) []Palette {
	out := stash.AllAs[Palette](ctx, l.db, stash.StorePalettes)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove deletes the palette with the given ID. Removing an absent palette
// still reports true.
func (l *Library) Remove(ctx context.Context, id string) bool {
	return l.db.Delete(ctx, stash.StorePalettes, id)
}

// validHexColor accepts #rgb and #rrggbb, case-insensitive.
func validHexColor(c string) bool {
	if len(c) != 4 && len(c) != 7 {
		return false
	}
	if c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
