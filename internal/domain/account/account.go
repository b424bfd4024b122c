// Package account implements demo-grade registration and login.
//
// Users live in the client's own storage and, unless password hashing is
// enabled, passwords are stored as entered. This mirrors the storefront demo
// and is not suitable for production use.
package account

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/storage"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// Sentinel errors for account operations.
var (
	ErrMissingFields      = errors.New("required fields missing")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a registered account.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Hashed marks Password as a bcrypt hash.
	Hashed bool `json:"hashed,omitempty"`
}

// Session identifies the logged-in user.
type Session struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Registration is a register form submission.
type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Credentials is a login form submission.
type Credentials struct {
	Username string
	Email    string
	Password string
}

// Service manages users and the session of one client.
type Service struct {
	kv         storage.Store
	hashed     bool
	bcryptCost int
}

// Option configures a Service.
type Option func(*Service)

// WithHashedPasswords stores new passwords as bcrypt hashes. Login accepts
// both hashed and plaintext records.
func WithHashedPasswords(cost int) Option {
	return func(s *Service) {
		s.hashed = true
		s.bcryptCost = cost
	}
}

// NewService creates an account Service over a client-scoped store.
func NewService(kv storage.Store, opts ...Option) *Service {
	s := &Service{kv: kv, bcryptCost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Users returns all registered users. A missing or malformed list is empty.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	var users []User
	ok, err := storage.GetJSON(ctx, s.kv, storage.KeyUsers, &users)
	if err != nil {
		return nil, errors.Wrap(err, "load users")
	}
	if !ok {
		return nil, nil
	}
	return users, nil
}

// Register validates the submission and appends a new user. Username and
// email must each be unused; comparison is exact and case-sensitive.
func (s *Service) Register(ctx context.Context, r Registration) (*User, error) {
	u, err := Validate(r)
	if err != nil {
		return nil, err
	}

	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, ErrUserExists
		}
	}

	if err := s.setPassword(&u); err != nil {
		return nil, err
	}
	users = append(users, u)
	if err := storage.SetJSON(ctx, s.kv, storage.KeyUsers, users); err != nil {
		return nil, errors.Wrap(err, "save users")
	}
	return &u, nil
}

// ImportResult counts the outcome of Import.
type ImportResult struct {
	Added     int
	Invalid   int
	Duplicate int
}

// Import appends users in bulk with a single write. Each user passes the
// same checks as Register with the password as its own confirmation. Invalid
// users and users clashing with stored or earlier imported ones are skipped.
func (s *Service) Import(ctx context.Context, incoming []User) (ImportResult, error) {
	var res ImportResult

	users, err := s.Users(ctx)
	if err != nil {
		return res, err
	}
	usernames := make(map[string]struct{}, len(users)+len(incoming))
	emails := make(map[string]struct{}, len(users)+len(incoming))
	for _, u := range users {
		usernames[u.Username] = struct{}{}
		emails[u.Email] = struct{}{}
	}

	for _, in := range incoming {
		u, err := ValidateUser(in)
		if err != nil {
			res.Invalid++
			continue
		}
		_, takenName := usernames[u.Username]
		_, takenEmail := emails[u.Email]
		if takenName || takenEmail {
			res.Duplicate++
			continue
		}
		if err := s.setPassword(&u); err != nil {
			return res, err
		}
		usernames[u.Username] = struct{}{}
		emails[u.Email] = struct{}{}
		users = append(users, u)
		res.Added++
	}

	if res.Added == 0 {
		return res, nil
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeyUsers, users); err != nil {
		return res, errors.Wrap(err, "save users")
	}
	return res, nil
}

// Validate checks a registration and returns the user it describes with
// username and email trimmed.
func Validate(r Registration) (User, error) {
	u := User{
		Username: strings.TrimSpace(r.Username),
		Email:    strings.TrimSpace(r.Email),
		Password: r.Password,
	}
	if u.Username == "" || u.Email == "" || r.Password == "" || r.ConfirmPassword == "" {
		return User{}, ErrMissingFields
	}
	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		return User{}, ErrPasswordTooShort
	}
	if r.Password != r.ConfirmPassword {
		return User{}, ErrPasswordMismatch
	}
	return u, nil
}

// ValidateUser checks a user record as Validate does, using the password as
// its own confirmation.
func ValidateUser(u User) (User, error) {
	return Validate(Registration{
		Username:        u.Username,
		Email:           u.Email,
		Password:        u.Password,
		ConfirmPassword: u.Password,
	})
}

func (s *Service) setPassword(u *User) error {
	if !s.hashed {
		u.Hashed = false
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.bcryptCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	u.Password = string(hash)
	u.Hashed = true
	return nil
}

// Login authenticates by matching username, email and password against a
// single stored user, then records the session.
func (s *Service) Login(ctx context.Context, c Credentials) (*Session, error) {
	username := strings.TrimSpace(c.Username)
	email := strings.TrimSpace(c.Email)

	if username == "" || email == "" || c.Password == "" {
		return nil, ErrMissingFields
	}

	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Username != username || u.Email != email {
			continue
		}
		if !passwordMatches(u, c.Password) {
			continue
		}

		sess := &Session{Username: u.Username, Email: u.Email}
		if err := storage.SetJSON(ctx, s.kv, storage.KeyCurrentUser, sess); err != nil {
			return nil, errors.Wrap(err, "save session")
		}
		return sess, nil
	}
	return nil, ErrInvalidCredentials
}

// CurrentSession returns the logged-in user, if any.
func (s *Service) CurrentSession(ctx context.Context) (*Session, bool, error) {
	var sess Session
	ok, err := storage.GetJSON(ctx, s.kv, storage.KeyCurrentUser, &sess)
	if err != nil {
		return nil, false, errors.Wrap(err, "load session")
	}
	if !ok || sess.Username == "" {
		return nil, false, nil
	}
	return &sess, true, nil
}

func passwordMatches(u User, given string) bool {
	if u.Hashed {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(given)) == nil
	}
	return u.Password == given
}
