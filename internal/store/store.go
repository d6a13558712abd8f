// Package store persists JSON documents and images as versioned objects.
//
// Every write is a compare-and-swap against the version tag returned by the
// previous read. Version tags are git blob hashes of the content, so they are
// comparable across backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

var (
	ErrNotFound        = errors.New("object not found")
	ErrVersionConflict = errors.New("object version conflict")
	ErrAlreadyExists   = errors.New("object already exists")
)

// NetworkError wraps a transport failure or an unexpected remote response.
type NetworkError struct {
	Op         string
	Path       string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("store %s %s: status %d: %v", e.Op, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type EntryKind string

const (
	KindFile EntryKind = "file"
	KindDir  EntryKind = "dir"
)

// Entry is one child of a listed directory.
type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Kind EntryKind `json:"type"`
}

// Object is the content of a file together with its version tag.
type Object struct {
	Path    string
	Content []byte
	Version string
}

// ObjectStore is the remote file-content API used by every repository.
//
// Write with an empty version creates the object and fails with
// ErrAlreadyExists when it is present. Write with a version replaces the
// object only while its current version matches, otherwise it fails with
// ErrVersionConflict. List on a missing directory returns an empty slice.
type ObjectStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) (Object, error)
	Write(ctx context.Context, path string, content []byte, version, message string) (string, error)
	Delete(ctx context.Context, path, version, message string) error
	List(ctx context.Context, dir string) ([]Entry, error)
}

// BlobVersion returns the version tag for content.
func BlobVersion(content []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, content).String()
}

// CleanPath normalizes p to a slash separated path relative to the store root.
func CleanPath(p string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(p))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".git" {
			return "", fmt.Errorf("invalid object path %q", p)
		}
	}
	return cleaned, nil
}

func cleanDir(dir string) string {
	cleaned := path.Clean("/" + strings.TrimSpace(dir))
	return strings.TrimPrefix(cleaned, "/")
}
