package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// GitHubConfig configures access to a repository through the contents API.
type GitHubConfig struct {
	BaseURL string
	Owner   string
	Repo    string
	Branch  string
	Token   string
	Timeout time.Duration
}

// GitHubStore keeps objects as files of a GitHub repository. Each write is a commit.
type GitHubStore struct {
	client  *http.Client
	baseURL string
	owner   string
	repo    string
	branch  string
}

// NewGitHubStore builds a store authenticated with a static token.
func NewGitHubStore(ctx context.Context, cfg GitHubConfig) *GitHubStore {
	client := &http.Client{}
	if cfg.Token != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}
	client.Timeout = cfg.Timeout

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GitHubStore{
		client:  client,
		baseURL: baseURL,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  cfg.Branch,
	}
}

type contentItem struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

const (
	acceptJSON = "application/vnd.github.v3+json"
	acceptRaw  = "application/vnd.github.raw"
)

type writeRequest struct {
	Message string `json:"message"`
	Content string `json:"content,omitempty"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type writeResponse struct {
	Content contentItem `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

func (s *GitHubStore) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.Read(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GitHubStore) Read(ctx context.Context, p string) (Object, error) {
	p, err := CleanPath(p)
	if err != nil {
		return Object{}, err
	}

	body, status, err := s.do(ctx, http.MethodGet, p, nil)
	if err != nil {
		return Object{}, &NetworkError{Op: "read", Path: p, Err: err}
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return Object{}, fmt.Errorf("read %s: %w", p, ErrNotFound)
	default:
		return Object{}, remoteError("read", p, status, body)
	}

	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		return Object{}, fmt.Errorf("read %s: path is a directory", p)
	}
	var item contentItem
	if err := json.Unmarshal(body, &item); err != nil {
		return Object{}, fmt.Errorf("decode %s: %w", p, err)
	}
	// Files over 1 MB come back without inline content.
	if item.Encoding == "none" || (item.Content == "" && item.Size > 0) {
		content, err := s.readRaw(ctx, p)
		if err != nil {
			return Object{}, err
		}
		return Object{Path: p, Content: content, Version: item.SHA}, nil
	}
	content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(item.Content, "\n", ""))
	if err != nil {
		return Object{}, fmt.Errorf("decode %s content: %w", p, err)
	}
	return Object{Path: p, Content: content, Version: item.SHA}, nil
}

// readRaw fetches the file bytes directly, for files too large to be inlined.
func (s *GitHubStore) readRaw(ctx context.Context, p string) ([]byte, error) {
	body, status, err := s.request(ctx, http.MethodGet, p, nil, acceptRaw)
	if err != nil {
		return nil, &NetworkError{Op: "read", Path: p, Err: err}
	}
	switch status {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("read %s: %w", p, ErrNotFound)
	default:
		return nil, remoteError("read", p, status, body)
	}
}

func (s *GitHubStore) Write(ctx context.Context, p string, content []byte, version, message string) (string, error) {
	p, err := CleanPath(p)
	if err != nil {
		return "", err
	}

	req := writeRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     version,
		Branch:  s.branch,
	}
	body, status, err := s.do(ctx, http.MethodPut, p, req)
	if err != nil {
		return "", &NetworkError{Op: "write", Path: p, Err: err}
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// Without a sha GitHub rejects writes over an existing file.
		if version == "" {
			return "", fmt.Errorf("write %s: %w", p, ErrAlreadyExists)
		}
		return "", fmt.Errorf("write %s: %w", p, ErrVersionConflict)
	case http.StatusNotFound:
		return "", fmt.Errorf("write %s: %w", p, ErrNotFound)
	default:
		return "", remoteError("write", p, status, body)
	}

	var resp writeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode write response %s: %w", p, err)
	}
	if resp.Content.SHA == "" {
		return BlobVersion(content), nil
	}
	return resp.Content.SHA, nil
}

func (s *GitHubStore) Delete(ctx context.Context, p, version, message string) error {
	p, err := CleanPath(p)
	if err != nil {
		return err
	}
	if version == "" {
		obj, err := s.Read(ctx, p)
		if err != nil {
			return err
		}
		version = obj.Version
	}

	body, status, err := s.do(ctx, http.MethodDelete, p, writeRequest{Message: message, SHA: version, Branch: s.branch})
	if err != nil {
		return &NetworkError{Op: "delete", Path: p, Err: err}
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("delete %s: %w", p, ErrNotFound)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("delete %s: %w", p, ErrVersionConflict)
	default:
		return remoteError("delete", p, status, body)
	}
}

func (s *GitHubStore) List(ctx context.Context, dir string) ([]Entry, error) {
	dir = cleanDir(dir)

	body, status, err := s.do(ctx, http.MethodGet, dir, nil)
	if err != nil {
		return nil, &NetworkError{Op: "list", Path: dir, Err: err}
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return []Entry{}, nil
	default:
		return nil, remoteError("list", dir, status, body)
	}

	var items []contentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("list %s: not a directory: %w", dir, err)
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		kind := KindFile
		if item.Type == "dir" {
			kind = KindDir
		}
		entries = append(entries, Entry{Name: item.Name, Path: item.Path, Kind: kind})
	}
	return entries, nil
}

func (s *GitHubStore) do(ctx context.Context, method, p string, payload any) ([]byte, int, error) {
	return s.request(ctx, method, p, payload, acceptJSON)
}

func (s *GitHubStore) request(ctx context.Context, method, p string, payload any, accept string) ([]byte, int, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.baseURL, url.PathEscape(s.owner), url.PathEscape(s.repo), escapePath(p))
	if method == http.MethodGet && s.branch != "" {
		endpoint += "?ref=" + url.QueryEscape(s.branch)
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "waz-calendar")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func escapePath(p string) string {
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func remoteError(op, p string, status int, body []byte) error {
	var apiErr apiError
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &NetworkError{Op: op, Path: p, StatusCode: status, Err: errors.New(msg)}
}
