package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	gogitfs "github.com/go-git/go-git/v5/storage/filesystem"
)

// GitStore keeps objects in a local git working tree and commits every change.
type GitStore struct {
	mu     sync.Mutex
	fs     billy.Filesystem
	repo   *gogit.Repository
	author object.Signature
}

// OpenGitStore opens or initializes a repository rooted at dir.
func OpenGitStore(dir, authorName, authorEmail string) (*GitStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	return NewGitStore(osfs.New(dir), authorName, authorEmail)
}

// NewGitStore initializes a repository on fs, or opens the one already there.
func NewGitStore(fs billy.Filesystem, authorName, authorEmail string) (*GitStore, error) {
	if err := fs.MkdirAll(".git", 0o755); err != nil {
		return nil, fmt.Errorf("create .git dir: %w", err)
	}
	dotGitFS, err := fs.Chroot(".git")
	if err != nil {
		return nil, fmt.Errorf("chroot .git dir: %w", err)
	}

	storage := gogitfs.NewStorage(dotGitFS, cache.NewObjectLRUDefault())
	repo, err := gogit.Init(storage, fs)
	if errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
		repo, err = gogit.Open(storage, fs)
	}
	if err != nil {
		return nil, fmt.Errorf("open git repo: %w", err)
	}

	return &GitStore{
		fs:     fs,
		repo:   repo,
		author: object.Signature{Name: authorName, Email: authorEmail},
	}, nil
}

func (s *GitStore) Exists(ctx context.Context, p string) (bool, error) {
	p, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.fs.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *GitStore) Read(ctx context.Context, p string) (Object, error) {
	p, err := CleanPath(p)
	if err != nil {
		return Object{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read(p)
}

func (s *GitStore) Write(ctx context.Context, p string, content []byte, version, message string) (string, error) {
	p, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(p)
	switch {
	case errors.Is(err, ErrNotFound):
		if version != "" {
			return "", err
		}
	case err != nil:
		return "", err
	case version == "":
		return "", fmt.Errorf("write %s: %w", p, ErrAlreadyExists)
	case current.Version != version:
		return "", fmt.Errorf("write %s: %w", p, ErrVersionConflict)
	}

	if dir := path.Dir(p); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create dir for %s: %w", p, err)
		}
	}
	if err := util.WriteFile(s.fs, p, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}

	w, err := s.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("get worktree: %w", err)
	}
	if _, err := w.Add(p); err != nil {
		return "", fmt.Errorf("stage %s: %w", p, err)
	}
	if err := s.commit(w, message); err != nil {
		return "", fmt.Errorf("commit %s: %w", p, err)
	}
	return BlobVersion(content), nil
}

func (s *GitStore) Delete(ctx context.Context, p, version, message string) error {
	p, err := CleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(p)
	if err != nil {
		return err
	}
	if version != "" && current.Version != version {
		return fmt.Errorf("delete %s: %w", p, ErrVersionConflict)
	}

	w, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}
	if _, err := w.Remove(p); err != nil {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	if err := s.commit(w, message); err != nil {
		return fmt.Errorf("commit %s: %w", p, err)
	}
	return nil
}

func (s *GitStore) List(ctx context.Context, dir string) ([]Entry, error) {
	dir = cleanDir(dir)
	s.mu.Lock()
	defer s.mu.Unlock()

	infos, err := s.fs.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if info.Name() == ".git" {
			continue
		}
		kind := KindFile
		if info.IsDir() {
			kind = KindDir
		}
		entries = append(entries, Entry{Name: info.Name(), Path: path.Join(dir, info.Name()), Kind: kind})
	}
	return entries, nil
}

func (s *GitStore) read(p string) (Object, error) {
	content, err := util.ReadFile(s.fs, p)
	if errors.Is(err, os.ErrNotExist) {
		return Object{}, fmt.Errorf("read %s: %w", p, ErrNotFound)
	}
	if err != nil {
		return Object{}, fmt.Errorf("read %s: %w", p, err)
	}
	return Object{Path: p, Content: content, Version: BlobVersion(content)}, nil
}

func (s *GitStore) commit(w *gogit.Worktree, message string) error {
	author := s.author
	author.When = time.Now()
	_, err := w.Commit(message, &gogit.CommitOptions{Author: &author})
	if errors.Is(err, gogit.ErrEmptyCommit) {
		// nothing changed
		return nil
	}
	return err
}
