package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps objects as rows. Every change is appended to object_changes.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type objectRow struct {
	Path    string `db:"path"`
	Content []byte `db:"content"`
	SHA     string `db:"sha"`
}

func (s *PostgresStore) Exists(ctx context.Context, p string) (bool, error) {
	p, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM objects WHERE path=$1)`, p); err != nil {
		return false, &NetworkError{Op: "exists", Path: p, Err: err}
	}
	return exists, nil
}

func (s *PostgresStore) Read(ctx context.Context, p string) (Object, error) {
	p, err := CleanPath(p)
	if err != nil {
		return Object{}, err
	}
	var row objectRow
	err = s.db.GetContext(ctx, &row, `SELECT path, content, sha FROM objects WHERE path=$1`, p)
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, fmt.Errorf("read %s: %w", p, ErrNotFound)
	}
	if err != nil {
		return Object{}, &NetworkError{Op: "read", Path: p, Err: err}
	}
	return Object{Path: row.Path, Content: row.Content, Version: row.SHA}, nil
}

func (s *PostgresStore) Write(ctx context.Context, p string, content []byte, version, message string) (string, error) {
	p, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	sha := BlobVersion(content)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", &NetworkError{Op: "write", Path: p, Err: err}
	}
	defer tx.Rollback()

	var res sql.Result
	if version == "" {
		res, err = tx.ExecContext(ctx, `INSERT INTO objects (path, content, sha) VALUES ($1, $2, $3) ON CONFLICT (path) DO NOTHING`, p, content, sha)
	} else {
		res, err = tx.ExecContext(ctx, `UPDATE objects SET content=$2, sha=$3, updated_at=NOW() WHERE path=$1 AND sha=$4`, p, content, sha, version)
	}
	if err != nil {
		return "", &NetworkError{Op: "write", Path: p, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", &NetworkError{Op: "write", Path: p, Err: err}
	}
	if affected == 0 {
		if version == "" {
			return "", fmt.Errorf("write %s: %w", p, ErrAlreadyExists)
		}
		return "", s.missingOrConflict(ctx, tx, "write", p)
	}

	if err := recordChange(ctx, tx, p, sha, "write", message); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", &NetworkError{Op: "write", Path: p, Err: err}
	}
	return sha, nil
}

func (s *PostgresStore) Delete(ctx context.Context, p, version, message string) error {
	p, err := CleanPath(p)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &NetworkError{Op: "delete", Path: p, Err: err}
	}
	defer tx.Rollback()

	var res sql.Result
	if version == "" {
		res, err = tx.ExecContext(ctx, `DELETE FROM objects WHERE path=$1`, p)
	} else {
		res, err = tx.ExecContext(ctx, `DELETE FROM objects WHERE path=$1 AND sha=$2`, p, version)
	}
	if err != nil {
		return &NetworkError{Op: "delete", Path: p, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &NetworkError{Op: "delete", Path: p, Err: err}
	}
	if affected == 0 {
		return s.missingOrConflict(ctx, tx, "delete", p)
	}

	if err := recordChange(ctx, tx, p, "", "delete", message); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &NetworkError{Op: "delete", Path: p, Err: err}
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, dir string) ([]Entry, error) {
	dir = cleanDir(dir)
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	var paths []string
	if err := s.db.SelectContext(ctx, &paths, `SELECT path FROM objects WHERE LEFT(path, LENGTH($1)) = $1 ORDER BY path`, prefix); err != nil {
		return nil, &NetworkError{Op: "list", Path: dir, Err: err}
	}
	return childEntries(prefix, paths), nil
}

func (s *PostgresStore) missingOrConflict(ctx context.Context, tx *sqlx.Tx, op, p string) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM objects WHERE path=$1)`, p); err != nil {
		return &NetworkError{Op: op, Path: p, Err: err}
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", op, p, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, p, ErrVersionConflict)
}

func recordChange(ctx context.Context, tx *sqlx.Tx, p, sha, op, message string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO object_changes (path, sha, op, message) VALUES ($1, $2, $3, $4)`, p, sha, op, message)
	if err != nil {
		return &NetworkError{Op: op, Path: p, Err: fmt.Errorf("record change: %w", err)}
	}
	return nil
}

// childEntries folds full object paths under prefix into the immediate children of the directory.
func childEntries(prefix string, paths []string) []Entry {
	seenDirs := map[string]bool{}
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		rest := strings.TrimPrefix(p, prefix)
		if rest == "" {
			continue
		}
		if i := strings.Index(rest, "/"); i >= 0 {
			name := rest[:i]
			if !seenDirs[name] {
				seenDirs[name] = true
				entries = append(entries, Entry{Name: name, Path: prefix + name, Kind: KindDir})
			}
			continue
		}
		entries = append(entries, Entry{Name: rest, Path: p, Kind: KindFile})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
