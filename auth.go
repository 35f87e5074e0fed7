package datashare

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCredentialTTL is the lifetime of a session credential.
const DefaultCredentialTTL = 7 * 24 * time.Hour

// AuthConfig holds configuration options for AuthService.
type AuthConfig struct {
	CredentialTTL time.Duration // Lifetime of issued credentials (default: 7 days)
	BcryptCost    int           // Password hashing cost (default: bcrypt.DefaultCost)
}

// AuthService registers accounts, checks passwords and turns session
// credentials back into principals.
type AuthService struct {
	users UserRepo
	codec *CredentialCodec
	ttl   time.Duration
	cost  int
}

// LoginResult is returned by AuthService.Login.
type LoginResult struct {
	Token      string
	Credential Credential
	User       User
}

// NewAuthService creates an AuthService. A zero CredentialTTL or BcryptCost
// selects the default.
func NewAuthService(users UserRepo, codec *CredentialCodec, cfg AuthConfig) (*AuthService, error) {
	if users == nil || codec == nil {
		return nil, fmt.Errorf("new auth service: %w: user repo and codec are required", ErrInvalidInput)
	}

	ttl := cfg.CredentialTTL
	if ttl <= 0 {
		ttl = DefaultCredentialTTL
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("new auth service: %w: bcrypt cost %d out of range", ErrInvalidInput, cost)
	}

	return &AuthService{users: users, codec: codec, ttl: ttl, cost: cost}, nil
}

// CredentialTTL returns the lifetime of credentials issued by Login.
func (s *AuthService) CredentialTTL() time.Duration {
	return s.ttl
}

// Register hashes password and stores a new account. The email is stored
// exactly as given.
//
// Returns ErrEmailInUse if the email is taken and ErrInvalidInput for an
// empty email or a password bcrypt cannot hash (over 72 bytes).
func (s *AuthService) Register(ctx context.Context, email, password string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, fmt.Errorf("register: %w", err)
	}

	if email == "" || password == "" {
		return User{}, fmt.Errorf("register: %w: email and password are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return User{}, fmt.Errorf("register: %w: password too long", ErrInvalidInput)
		}
		return User{}, fmt.Errorf("register: hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		return User{}, fmt.Errorf("register %s: %w", email, err)
	}

	return user, nil
}

// Login checks the password and issues a credential whose subject is the
// account email. An unknown email and a wrong password both return
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if err := ctx.Err(); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, fmt.Errorf("login: %w", ErrInvalidCredentials)
		}
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", ErrInvalidCredentials)
	}

	token, cred, err := s.codec.Issue(user.Email, s.ttl)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	return LoginResult{Token: token, Credential: cred, User: user}, nil
}

// Authenticate resolves a raw credential to the principal it names.
//
// Error types returned:
//   - ErrInvalidCredential: bad signature, algorithm, format or issuer
//   - ErrInvalidCredential wrapping ErrExpiredCredential: now >= exp
//   - ErrNotFound: the subject no longer resolves to an account
func (s *AuthService) Authenticate(ctx context.Context, raw string) (Principal, error) {
	if err := ctx.Err(); err != nil {
		return Principal{}, fmt.Errorf("authenticate: %w", err)
	}

	cred, err := s.codec.Verify(raw)
	if err != nil {
		return Principal{}, fmt.Errorf("authenticate: %w", err)
	}

	if s.codec.Expired(cred) {
		return Principal{}, fmt.Errorf("authenticate: %w: %w", ErrInvalidCredential, ErrExpiredCredential)
	}

	user, err := s.users.GetUserByEmail(ctx, cred.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("authenticate %s: %w", cred.Subject, err)
	}

	return Principal{ID: user.ID, Email: user.Email}, nil
}
