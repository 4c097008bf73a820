package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/deeplink/internal/canonical"
	"github.com/roach88/deeplink/internal/route"
)

// Entry is one recorded URL. An empty Route records that the URL resolved
// to nothing.
type Entry struct {
	Seq        int64        `json:"seq" yaml:"seq"`
	ID         string       `json:"id" yaml:"id"`
	URL        string       `json:"url" yaml:"url"`
	Route      route.Name   `json:"route,omitempty" yaml:"route,omitempty"`
	Params     route.Params `json:"params" yaml:"params"`
	ParamsHash string       `json:"params_hash" yaml:"params_hash"`
}

// Record stores url with its resolution. Recording a URL that is already
// present is a no-op and reports inserted=false; the existing entry is
// returned unchanged. Use Forget first to replace it.
func (s *Store) Record(ctx context.Context, url string, name route.Name, params route.Params) (Entry, bool, error) {
	if url == "" {
		return Entry{}, false, fmt.Errorf("record: empty url")
	}
	if params == nil {
		params = route.Params{}
	}

	id, err := canonical.LinkID(url, name, params)
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: %w", err)
	}
	paramsHash, err := canonical.ParamsHash(name, params)
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: %w", err)
	}
	paramsJSON, err := canonical.Marshal(params)
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: marshal params: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO links (id, url, route, params, params_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, id, url, string(name), string(paramsJSON), paramsHash)
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: %w", err)
	}

	entry, err := s.Get(ctx, url)
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: %w", err)
	}
	return entry, n > 0, nil
}

// Get returns the entry recorded for url, or ErrNotFound.
func (s *Store) Get(ctx context.Context, url string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, url, route, params, params_hash
		FROM links
		WHERE url = ?
	`, url)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %q: %w", url, err)
	}
	return entry, nil
}

// List returns every entry in recording order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `
		SELECT seq, id, url, route, params, params_hash
		FROM links
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`)
}

// ListByRoute returns the entries recorded for one route in recording order.
// An empty name lists the URLs recorded as unresolved.
func (s *Store) ListByRoute(ctx context.Context, name route.Name) ([]Entry, error) {
	return s.query(ctx, `
		SELECT seq, id, url, route, params, params_hash
		FROM links
		WHERE route = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, string(name))
}

// Equivalents returns entries whose route and params match, whatever URL
// they were recorded from.
func (s *Store) Equivalents(ctx context.Context, name route.Name, params route.Params) ([]Entry, error) {
	if params == nil {
		params = route.Params{}
	}
	paramsHash, err := canonical.ParamsHash(name, params)
	if err != nil {
		return nil, fmt.Errorf("equivalents: %w", err)
	}
	return s.query(ctx, `
		SELECT seq, id, url, route, params, params_hash
		FROM links
		WHERE params_hash = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, paramsHash)
}

// Forget removes the entry for url. It reports whether one existed.
func (s *Store) Forget(ctx context.Context, url string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE url = ?`, url)
	if err != nil {
		return false, fmt.Errorf("forget %q: %w", url, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("forget %q: %w", url, err)
	}
	return n > 0, nil
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry      Entry
		name       string
		paramsJSON string
	)
	if err := row.Scan(&entry.Seq, &entry.ID, &entry.URL, &name, &paramsJSON, &entry.ParamsHash); err != nil {
		return Entry{}, err
	}
	entry.Route = route.Name(name)
	entry.Params = route.Params{}
	if err := json.Unmarshal([]byte(paramsJSON), &entry.Params); err != nil {
		return Entry{}, fmt.Errorf("unmarshal params: %w", err)
	}
	return entry, nil
}
