package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, credentials UserCredentials) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users       UserRepository
	hash        PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies with a specified logger.
func NewUserServiceWithLogger(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = HashPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		hash:        hash,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID, "role", string(user.Role)).InfoContext(ctx, "user created")
	}()

	if err = Authorize(params.Principal, CapabilityManageUsers); err != nil {
		return
	}

	user, err = s.create(ctx, params.Input)
	return
}

// ListUsers returns all users ordered by email for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}
	if err := Authorize(principal, CapabilityManageUsers); err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapUserRepoError(err)
	}

	out := make([]User, len(users))
	copy(out, users)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Email == out[j].Email {
			return out[i].ID < out[j].ID
		}
		return out[i].Email < out[j].Email
	})

	return out, nil
}

// EnsureBootstrapAdmin creates an administrator with the given credentials
// unless an account with the email already exists. The returned flag reports
// whether an account was created.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, email, password string) (User, bool, error) {
	if s == nil {
		return User{}, false, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, false, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "EnsureBootstrapAdmin")

	existing, err := s.users.GetUserCredentialsByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		if existing.User.Role != RoleAdmin {
			logger.WarnContext(ctx, "bootstrap email belongs to a non-admin account", "user_id", existing.User.ID)
		}
		return existing.User, false, nil
	}
	if !errors.Is(mapUserRepoError(err), ErrNotFound) {
		logger.ErrorContext(ctx, "failed to look up bootstrap admin", "error", err, "error_kind", ErrorKind(err))
		return User{}, false, err
	}

	user, err := s.create(ctx, UserInput{
		Email:       email,
		DisplayName: "Administrator",
		Role:        RoleAdmin,
		Password:    password,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create bootstrap admin", "error", err, "error_kind", ErrorKind(err))
		return User{}, false, err
	}

	logger.With("user_id", user.ID).InfoContext(ctx, "bootstrap admin created")
	return user, true, nil
}

func (s *UserService) create(ctx context.Context, input UserInput) (User, error) {
	normalized := normalizeUserInput(input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := s.hash(normalized.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:          s.idGenerator(),
		Email:       normalized.Email,
		DisplayName: normalized.DisplayName,
		Role:        normalized.Role,
		CreatedAt:   s.now(),
	}
	user.UpdatedAt = user.CreatedAt

	persisted, err := s.users.CreateUser(ctx, UserCredentials{User: user, PasswordHash: hash})
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return persisted, nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        Role(strings.ToLower(strings.TrimSpace(string(input.Role)))),
		Password:    input.Password,
	}
}

const minPasswordLength = 8

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	if !input.Role.Valid() {
		vErr.add("role", "role must be student, faculty, or admin")
	}

	if len(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	return vErr
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("role", "role must be student, faculty, or admin")
		return vErr
	}
	return err
}
