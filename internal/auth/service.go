package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/watchtogether/server/internal/config"
	"github.com/watchtogether/server/internal/metrics"
	"github.com/watchtogether/server/internal/token"
)

const maxPasswordLength = 72 // bcrypt limit

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, input NewUser) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (User, error)
}

// tokenCodec issues and verifies signed bearer tokens.
type tokenCodec interface {
	Issue(subject uuid.UUID, purpose token.Purpose, ttl time.Duration) (string, time.Time, error)
	Verify(tokenString string) (token.Claims, error)
}

// Service encapsulates authentication use cases.
type Service struct {
	store userStore
	codec tokenCodec
	cfg   config.AuthConfig

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService creates a Service with dependencies.
func NewService(store userStore, codec tokenCodec, cfg config.AuthConfig) *Service {
	return &Service{
		store: store,
		codec: codec,
		cfg:   cfg,
	}
}

// SignupInput carries data for user registration.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SigninInput carries login credentials.
type SigninInput struct {
	Email    string
	Password string
}

// AuthResult contains user and token information.
type AuthResult struct {
	User   User
	Tokens TokenPair
}

// Signup creates a new user with a bcrypt hashed password.
func (s *Service) Signup(ctx context.Context, input SignupInput) (User, error) {
	user, err := s.signup(ctx, input)
	switch {
	case err == nil:
		metrics.RecordAuth("signup", metrics.OutcomeSuccess)
	case errors.Is(err, ErrAlreadyExists):
		metrics.RecordAuth("signup", metrics.OutcomeConflict)
	case errors.Is(err, ErrPasswordTooLong):
		metrics.RecordAuth("signup", metrics.OutcomeRejected)
	default:
		metrics.RecordAuth("signup", metrics.OutcomeError)
	}
	return user, err
}

func (s *Service) signup(ctx context.Context, input SignupInput) (User, error) {
	// Fast path only: the unique constraint on users.email is what
	// actually prevents duplicates when two signups race.
	_, err := s.store.FindUserByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return User{}, ErrAlreadyExists
	case !errors.Is(err, ErrUserNotFound):
		return User{}, fmt.Errorf("find user: %w", err)
	}

	hashedPassword, err := hashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return User{}, err
	}

	user, err := s.store.CreateUser(ctx, NewUser{
		Email:        input.Email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return User{}, ErrAlreadyExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	return user.SafeUser(), nil
}

// Signin authenticates credentials and issues an access and refresh token.
func (s *Service) Signin(ctx context.Context, input SigninInput) (AuthResult, error) {
	result, err := s.signin(ctx, input)
	recordOutcome("signin", err)
	return result, err
}

func (s *Service) signin(ctx context.Context, input SigninInput) (AuthResult, error) {
	user, err := s.store.FindUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.compareDummy(input.Password)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	access, accessExpiry, err := s.codec.Issue(user.ID, token.PurposeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, refreshExpiry, err := s.codec.Issue(user.ID, token.PurposeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return AuthResult{
		User: user.SafeUser(),
		Tokens: TokenPair{
			AccessToken:        access,
			AccessTokenExpiry:  accessExpiry,
			RefreshToken:       refresh,
			RefreshTokenExpiry: refreshExpiry,
		},
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AccessToken, error) {
	result, err := s.refresh(ctx, refreshToken)
	recordOutcome("refresh", err)
	return result, err
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (AccessToken, error) {
	user, err := s.resolve(ctx, refreshToken, token.PurposeRefresh)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return AccessToken{}, ErrInvalidCredentials
		}
		return AccessToken{}, err
	}

	access, expiresAt, err := s.codec.Issue(user.ID, token.PurposeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return AccessToken{}, fmt.Errorf("issue access token: %w", err)
	}

	return AccessToken{Token: access, ExpiresAt: expiresAt}, nil
}

// Resolve verifies an access token and loads the user it was issued to.
// Every token or lookup failure yields ErrUnauthorized.
func (s *Service) Resolve(ctx context.Context, accessToken string) (User, error) {
	user, err := s.resolve(ctx, accessToken, token.PurposeAccess)
	switch {
	case err == nil:
		metrics.RecordAuth("authenticate", metrics.OutcomeSuccess)
	case errors.Is(err, ErrUnauthorized):
		metrics.RecordAuth("authenticate", metrics.OutcomeRejected)
	default:
		metrics.RecordAuth("authenticate", metrics.OutcomeError)
	}
	return user, err
}

func (s *Service) resolve(ctx context.Context, tokenString string, purpose token.Purpose) (User, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil || claims.Purpose != purpose {
		return User{}, ErrUnauthorized
	}

	user, err := s.store.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	return user.SafeUser(), nil
}

// compareDummy spends the same bcrypt effort as a real comparison so an
// unknown email cannot be told apart from a wrong password by timing.
func (s *Service) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cfg.BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func recordOutcome(operation string, err error) {
	switch {
	case err == nil:
		metrics.RecordAuth(operation, metrics.OutcomeSuccess)
	case errors.Is(err, ErrInvalidCredentials):
		metrics.RecordAuth(operation, metrics.OutcomeRejected)
	default:
		metrics.RecordAuth(operation, metrics.OutcomeError)
	}
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordLength {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}
