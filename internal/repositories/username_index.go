package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
)

// UsernameIndex maps usernames to account file paths.
//
// Reserve is atomic: when two signups race for the same name exactly one
// reservation succeeds and the other gets ErrUsernameTaken.
type UsernameIndex interface {
	Lookup(ctx context.Context, username string) (string, bool, error)
	Reserve(ctx context.Context, username, path string) error
	Release(ctx context.Context, username string) error
	Usernames(ctx context.Context) ([]string, error)
}

// MemoryIndex is a process-local UsernameIndex.
type MemoryIndex struct {
	mu    sync.RWMutex
	paths map[string]string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{paths: make(map[string]string)}
}

func (m *MemoryIndex) Lookup(ctx context.Context, username string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.paths[username]
	return p, ok, nil
}

func (m *MemoryIndex) Reserve(ctx context.Context, username, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.paths[username]; ok {
		return ErrUsernameTaken
	}
	m.paths[username] = path
	return nil
}

func (m *MemoryIndex) Release(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.paths, username)
	return nil
}

func (m *MemoryIndex) Usernames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.paths))
	for name := range m.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// PostgresIndex is a UsernameIndex shared by every service instance.
type PostgresIndex struct {
	db *sqlx.DB
}

func NewPostgresIndex(db *sqlx.DB) *PostgresIndex {
	return &PostgresIndex{db: db}
}

func (p *PostgresIndex) Lookup(ctx context.Context, username string) (string, bool, error) {
	var path string
	err := p.db.GetContext(ctx, &path, `SELECT path FROM account_index WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

func (p *PostgresIndex) Reserve(ctx context.Context, username, path string) error {
	res, err := p.db.ExecContext(ctx, `INSERT INTO account_index (username, path) VALUES ($1, $2) ON CONFLICT (username) DO NOTHING`, username, path)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUsernameTaken
	}
	return nil
}

func (p *PostgresIndex) Release(ctx context.Context, username string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM account_index WHERE username=$1`, username)
	return err
}

func (p *PostgresIndex) Usernames(ctx context.Context) ([]string, error) {
	var names []string
	if err := p.db.SelectContext(ctx, &names, `SELECT username FROM account_index ORDER BY username`); err != nil {
		return nil, err
	}
	return names, nil
}

func matchUsernames(names []string, term, exclude string) []string {
	term = strings.ToLower(term)
	out := []string{}
	for _, name := range names {
		if name == exclude {
			continue
		}
		if strings.Contains(strings.ToLower(name), term) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
