package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/ports"
)

// SignupRequest is the input of AccountService.Signup. An empty Currency
// falls back to the configured default.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
	Currency string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  core.User
}

// AccountService registers users and authenticates them.
type AccountService struct {
	users           ports.UserStore
	tokens          *auth.TokenIssuer
	defaultCurrency string
}

func NewAccountService(users ports.UserStore, tokens *auth.TokenIssuer, defaultCurrency string) *AccountService {
	if defaultCurrency == "" {
		defaultCurrency = core.DefaultCurrency
	}
	return &AccountService{
		users:           users,
		tokens:          tokens,
		defaultCurrency: defaultCurrency,
	}
}

// Signup creates the user and seeds the default expense categories in one
// step. An existing email yields core.ErrDuplicateEmail and creates nothing.
func (s *AccountService) Signup(ctx context.Context, req SignupRequest) (core.User, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return core.User{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	user := core.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    core.NormalizeEmail(req.Email),
		Currency: currency,
		// placeholder so validation can run before the expensive hash
		PasswordHash: "-",
	}
	if err := user.Validate(); err != nil {
		return core.User{}, err
	}

	exists, err := s.users.EmailExists(ctx, user.Email)
	if err != nil {
		return core.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return core.User{}, core.ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return core.User{}, err
	}
	user.PasswordHash = hash

	created, categories, err := s.users.CreateUserWithCategories(ctx, user, core.DefaultCategories(0))
	if err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			return core.User{}, err
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered",
		"user_id", created.ID,
		"currency", created.Currency,
		"categories", len(categories))
	return created, nil
}

// Login checks the credentials and issues a bearer token. Unknown emails and
// wrong passwords both return core.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return LoginResult{}, core.ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return LoginResult{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to the current user by the email
// subject. A token for a user that no longer exists is rejected.
func (s *AccountService) Authenticate(ctx context.Context, token string) (core.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return core.User{}, err
	}
	return s.CurrentUser(ctx, claims.Subject)
}

// CurrentUser looks up the authenticated user by email.
func (s *AccountService) CurrentUser(ctx context.Context, email string) (core.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, fmt.Errorf("%w: unknown user", core.ErrInvalidCredentials)
		}
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
