// Package history keeps the list of recently analyzed tokens, most recent
// first, deduplicated and capped at MaxEntries.
package history

import (
	"context"
	"strings"
)

// MaxEntries caps the stored history.
const MaxEntries = 5

// Store reads and writes the ordered history list.
type Store interface {
	Read(ctx context.Context) ([]string, error)
	Write(ctx context.Context, entries []string) error
}

// recorder is implemented by stores that can record atomically.
type recorder interface {
	Record(ctx context.Context, token string) ([]string, error)
}

// Record moves token to the front of the history and returns the new list.
// Blank tokens leave the history unchanged.
func Record(ctx context.Context, store Store, token string) ([]string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return store.Read(ctx)
	}
	if r, ok := store.(recorder); ok {
		return r.Record(ctx, token)
	}

	current, err := store.Read(ctx)
	if err != nil {
		return nil, err
	}
	next := Prepend(current, token)
	if err := store.Write(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Prepend returns a new list with token first, earlier duplicates removed
// and the result capped at MaxEntries.
func Prepend(entries []string, token string) []string {
	next := make([]string, 0, MaxEntries)
	next = append(next, token)
	for _, e := range entries {
		if len(next) == MaxEntries {
			break
		}
		if e == token || strings.TrimSpace(e) == "" {
			continue
		}
		next = append(next, e)
	}
	return next
}

// normalize drops blanks and duplicates and applies the cap.
func normalize(entries []string) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
		if len(out) == MaxEntries {
			break
		}
	}
	return out
}
