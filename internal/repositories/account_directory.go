package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"waz-calendar/internal/models"
	"waz-calendar/internal/store"
)

const AccountsDir = "accounts"

// accountFileLayout names account files by creation time, UTC, second precision.
const accountFileLayout = "20060102150405"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameTaken   = errors.New("username already taken")
)

// AccountHandle identifies a stored account and the version it was read at.
type AccountHandle struct {
	Path    string `json:"path"`
	Version string `json:"-"`
}

// AccountRecord is a decoded account together with its handle.
type AccountRecord struct {
	Handle  AccountHandle
	Account models.Account
}

// AccountDirectory resolves usernames to account files and persists accounts.
type AccountDirectory interface {
	FindByUsername(ctx context.Context, username string) (AccountRecord, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, account models.Account) (AccountRecord, error)
	Load(ctx context.Context, accountPath string) (AccountRecord, error)
	Save(ctx context.Context, handle AccountHandle, account models.Account) (AccountHandle, error)
	Search(ctx context.Context, term, exclude string) ([]string, error)
	All(ctx context.Context) ([]AccountRecord, error)
}

// AccountDir stores one JSON file per account under accounts/.
//
// With an index, lookups cost a single read and creation reserves the
// username atomically. Without one every lookup scans the directory.
type AccountDir struct {
	store store.ObjectStore
	index UsernameIndex
	now   func() time.Time
}

// NewAccountDir constructs an AccountDir. index may be nil.
func NewAccountDir(s store.ObjectStore, index UsernameIndex) *AccountDir {
	return &AccountDir{store: s, index: index, now: time.Now}
}

// WithClock sets the clock that names new account files.
func (d *AccountDir) WithClock(now func() time.Time) *AccountDir {
	d.now = now
	return d
}

// FindByUsername returns the account whose username matches exactly.
func (d *AccountDir) FindByUsername(ctx context.Context, username string) (AccountRecord, error) {
	if d.index != nil {
		p, ok, err := d.index.Lookup(ctx, username)
		if err != nil {
			return AccountRecord{}, fmt.Errorf("lookup %s: %w", username, err)
		}
		if !ok {
			return AccountRecord{}, ErrAccountNotFound
		}
		rec, err := d.Load(ctx, p)
		if errors.Is(err, ErrAccountNotFound) {
			log.Printf("account index stale: username=%s path=%s", username, p)
		}
		return rec, err
	}

	var found AccountRecord
	err := d.scan(ctx, func(rec AccountRecord) bool {
		if rec.Account.Username == username {
			found = rec
			return false
		}
		return true
	})
	if err != nil {
		return AccountRecord{}, err
	}
	if found.Handle.Path == "" {
		return AccountRecord{}, ErrAccountNotFound
	}
	return found, nil
}

func (d *AccountDir) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := d.FindByUsername(ctx, username)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create writes a new account file named after the current time.
func (d *AccountDir) Create(ctx context.Context, account models.Account) (AccountRecord, error) {
	now := d.now().UTC()
	account.CreatedAt = now
	account.Timestamp = now.Format(accountFileLayout)
	if account.Events == nil {
		account.Events = []models.Event{}
	}
	if account.Friends == nil {
		account.Friends = []string{}
	}
	if account.Notifications == nil {
		account.Notifications = []models.Notification{}
	}
	p := path.Join(AccountsDir, account.Timestamp+".json")

	if d.index != nil {
		if err := d.index.Reserve(ctx, account.Username, p); err != nil {
			return AccountRecord{}, err
		}
	} else {
		exists, err := d.UsernameExists(ctx, account.Username)
		if err != nil {
			return AccountRecord{}, err
		}
		if exists {
			return AccountRecord{}, ErrUsernameTaken
		}
	}

	content, err := encodeAccount(account)
	if err != nil {
		d.release(ctx, account.Username)
		return AccountRecord{}, err
	}
	version, err := d.store.Write(ctx, p, content, "", "Create account: "+account.Username)
	if err != nil {
		d.release(ctx, account.Username)
		return AccountRecord{}, fmt.Errorf("create account %s: %w", account.Username, err)
	}
	return AccountRecord{Handle: AccountHandle{Path: p, Version: version}, Account: account}, nil
}

func (d *AccountDir) Load(ctx context.Context, accountPath string) (AccountRecord, error) {
	obj, err := d.store.Read(ctx, accountPath)
	if errors.Is(err, store.ErrNotFound) {
		return AccountRecord{}, ErrAccountNotFound
	}
	if err != nil {
		return AccountRecord{}, err
	}
	var account models.Account
	if err := json.Unmarshal(obj.Content, &account); err != nil {
		return AccountRecord{}, fmt.Errorf("decode account %s: %w", accountPath, err)
	}
	return AccountRecord{Handle: AccountHandle{Path: obj.Path, Version: obj.Version}, Account: account}, nil
}

// Save replaces the account file if it is still at handle.Version.
func (d *AccountDir) Save(ctx context.Context, handle AccountHandle, account models.Account) (AccountHandle, error) {
	account.Touch(d.now())
	content, err := encodeAccount(account)
	if err != nil {
		return AccountHandle{}, err
	}
	version, err := d.store.Write(ctx, handle.Path, content, handle.Version, "Update account: "+account.Username)
	if err != nil {
		return AccountHandle{}, fmt.Errorf("save account %s: %w", account.Username, err)
	}
	return AccountHandle{Path: handle.Path, Version: version}, nil
}

// Search returns usernames containing term, case-insensitively, without exclude.
func (d *AccountDir) Search(ctx context.Context, term, exclude string) ([]string, error) {
	var names []string
	if d.index != nil {
		var err error
		names, err = d.index.Usernames(ctx)
		if err != nil {
			return nil, fmt.Errorf("list usernames: %w", err)
		}
	} else {
		err := d.scan(ctx, func(rec AccountRecord) bool {
			names = append(names, rec.Account.Username)
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return matchUsernames(names, term, exclude), nil
}

func (d *AccountDir) All(ctx context.Context) ([]AccountRecord, error) {
	var records []AccountRecord
	err := d.scan(ctx, func(rec AccountRecord) bool {
		records = append(records, rec)
		return true
	})
	return records, err
}

// Rebuild fills the index from a full scan of the accounts directory.
func (d *AccountDir) Rebuild(ctx context.Context) (int, error) {
	if d.index == nil {
		return 0, nil
	}
	count := 0
	err := d.scan(ctx, func(rec AccountRecord) bool {
		err := d.index.Reserve(ctx, rec.Account.Username, rec.Handle.Path)
		switch {
		case err == nil:
			count++
		case errors.Is(err, ErrUsernameTaken):
			// a persistent index already holds the entry from an earlier start
			if p, ok, _ := d.index.Lookup(ctx, rec.Account.Username); ok && p == rec.Handle.Path {
				count++
				return true
			}
			log.Printf("account index: duplicate username=%s path=%s", rec.Account.Username, rec.Handle.Path)
		default:
			log.Printf("account index: reserve username=%s failed: %v", rec.Account.Username, err)
		}
		return true
	})
	return count, err
}

// scan visits every readable account file until visit returns false.
func (d *AccountDir) scan(ctx context.Context, visit func(AccountRecord) bool) error {
	entries, err := d.store.List(ctx, AccountsDir)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	for _, entry := range entries {
		if entry.Kind != store.KindFile || !strings.HasSuffix(entry.Name, ".json") {
			continue
		}
		rec, err := d.Load(ctx, entry.Path)
		if err != nil {
			log.Printf("skip account file path=%s: %v", entry.Path, err)
			continue
		}
		if !visit(rec) {
			return nil
		}
	}
	return nil
}

func (d *AccountDir) release(ctx context.Context, username string) {
	if d.index == nil {
		return
	}
	if err := d.index.Release(ctx, username); err != nil {
		log.Printf("account index: release username=%s failed: %v", username, err)
	}
}

func encodeAccount(account models.Account) ([]byte, error) {
	content, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode account %s: %w", account.Username, err)
	}
	return content, nil
}
