package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"waz-calendar/internal/models"
	"waz-calendar/internal/repositories"
)

// AutoLoginWindow is how long a login may be restored without a password.
const AutoLoginWindow = 12 * time.Hour

var (
	ErrAuthFailed     = errors.New("invalid username or password")
	ErrSessionExpired = errors.New("session expired")
)

// State is the position of a client session in the login state machine.
// A login attempt is a single request, so there is no intermediate state.
type State string

const (
	StateLoggedOut State = "logged_out"
	StateLoggedIn  State = "logged_in"
)

// StateAfter reports the state a client is left in by err from Login, Restore or Verify.
func StateAfter(err error) State {
	if err == nil {
		return StateLoggedIn
	}
	return StateLoggedOut
}

// Session is an authenticated login.
type Session struct {
	ID          string    `json:"-"`
	Username    string    `json:"username"`
	AccountPath string    `json:"-"`
	LoginTime   time.Time `json:"login_time"`
	ExpiresAt   time.Time `json:"expires_at"`
	Token       string    `json:"token,omitempty"`
	State       State     `json:"state"`
}

// Profile is the public part of a freshly created account.
type Profile struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticator is the session/auth controller used by handlers and middleware.
type Authenticator interface {
	Signup(ctx context.Context, username, password, confirm string) (Profile, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	Restore(ctx context.Context, token string) (*Session, error)
	Verify(token string) (*Session, error)
	Logout(token string)
}

type sessionClaims struct {
	Username    string `json:"username"`
	AccountPath string `json:"account_path"`
	jwt.RegisteredClaims
}

// Controller issues HS256 session tokens for accounts in the directory.
type Controller struct {
	dir     repositories.AccountDirectory
	hasher  PasswordHasher
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked *revocationList
}

// NewController builds a Controller. A non-positive ttl selects AutoLoginWindow,
// and a ttl above it is capped so no session outlives the auto-login window.
func NewController(dir repositories.AccountDirectory, hasher PasswordHasher, secret []byte, ttl time.Duration) *Controller {
	if ttl <= 0 || ttl > AutoLoginWindow {
		ttl = AutoLoginWindow
	}
	return &Controller{
		dir:     dir,
		hasher:  hasher,
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
		revoked: newRevocationList(),
	}
}

// IsAutoLoginEligible reports whether a login at loginTime may still be restored at now.
// The boundary is exclusive: exactly twelve hours later the session is expired.
func IsAutoLoginEligible(loginTime, now time.Time) bool {
	return withinWindow(loginTime, now, AutoLoginWindow)
}

func withinWindow(loginTime, now time.Time, window time.Duration) bool {
	return now.Sub(loginTime) < window
}

func (c *Controller) Signup(ctx context.Context, username, password, confirm string) (Profile, error) {
	if err := ValidateSignup(username, password, confirm); err != nil {
		return Profile{}, err
	}

	exists, err := c.dir.UsernameExists(ctx, username)
	if err != nil {
		return Profile{}, fmt.Errorf("check username %s: %w", username, err)
	}
	if exists {
		return Profile{}, repositories.ErrUsernameTaken
	}

	hash, err := c.hasher.Hash(password)
	if err != nil {
		return Profile{}, err
	}
	rec, err := c.dir.Create(ctx, models.Account{Username: username, PasswordHash: hash})
	if err != nil {
		return Profile{}, err
	}
	log.Printf("account created username=%s path=%s", username, rec.Handle.Path)
	return Profile{Username: rec.Account.Username, CreatedAt: rec.Account.CreatedAt}, nil
}

// Login moves a client to LoggedIn, or leaves it LoggedOut with ErrAuthFailed.
func (c *Controller) Login(ctx context.Context, username, password string) (*Session, error) {
	rec, err := c.dir.FindByUsername(ctx, username)
	if errors.Is(err, repositories.ErrAccountNotFound) {
		return nil, ErrAuthFailed
	}
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", username, err)
	}

	ok, err := c.hasher.Matches(rec.Account.PasswordHash, password)
	if err != nil {
		log.Printf("login username=%s: unusable password hash: %v", username, err)
		return nil, ErrAuthFailed
	}
	if !ok {
		return nil, ErrAuthFailed
	}
	return c.issue(rec.Account.Username, rec.Handle.Path, c.now())
}

// Restore re-validates a stored token against the directory.
func (c *Controller) Restore(ctx context.Context, token string) (*Session, error) {
	session, err := c.Verify(token)
	if err != nil {
		return nil, err
	}

	rec, err := c.dir.FindByUsername(ctx, session.Username)
	if errors.Is(err, repositories.ErrAccountNotFound) {
		return nil, ErrAuthFailed
	}
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", session.Username, err)
	}
	session.AccountPath = rec.Handle.Path
	return session, nil
}

// Verify checks the token signature, revocation and auto-login window without storage access.
func (c *Controller) Verify(token string) (*Session, error) {
	claims, err := c.parse(token)
	if err != nil {
		return nil, ErrAuthFailed
	}
	if c.revoked.IsRevoked(claims.ID) {
		return nil, ErrAuthFailed
	}

	loginTime := claims.IssuedAt.Time
	if !withinWindow(loginTime, c.now(), c.ttl) {
		return nil, ErrSessionExpired
	}
	return &Session{
		ID:          claims.ID,
		Username:    claims.Username,
		AccountPath: claims.AccountPath,
		LoginTime:   loginTime,
		ExpiresAt:   loginTime.Add(c.ttl),
		State:       StateLoggedIn,
	}, nil
}

// Logout revokes the token. It never fails: an unreadable token is already useless.
func (c *Controller) Logout(token string) {
	claims, err := c.parse(token)
	if err != nil {
		return
	}
	now := c.now()
	c.revoked.Revoke(claims.ID, claims.IssuedAt.Time.Add(c.ttl), now)
	log.Printf("session revoked username=%s", claims.Username)
}

func (c *Controller) issue(username, accountPath string, loginTime time.Time) (*Session, error) {
	loginTime = loginTime.Truncate(time.Second)
	claims := sessionClaims{
		Username:    username,
		AccountPath: accountPath,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(loginTime),
			ExpiresAt: jwt.NewNumericDate(loginTime.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &Session{
		ID:          claims.ID,
		Username:    username,
		AccountPath: accountPath,
		LoginTime:   loginTime,
		ExpiresAt:   loginTime.Add(c.ttl),
		Token:       signed,
		State:       StateLoggedIn,
	}, nil
}

func (c *Controller) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.IssuedAt == nil || claims.Username == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
