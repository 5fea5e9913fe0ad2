package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

type userRepoStub struct {
	byID      map[string]UserCredentials
	createErr error
	created   UserCredentials
	listErr   error
}

func newUserRepoStub(users ...UserCredentials) *userRepoStub {
	repo := &userRepoStub{byID: make(map[string]UserCredentials)}
	for _, u := range users {
		repo.byID[u.User.ID] = u
	}
	return repo
}

func (r *userRepoStub) CreateUser(ctx context.Context, credentials UserCredentials) (User, error) {
	if r.createErr != nil {
		return User{}, r.createErr
	}
	for _, existing := range r.byID {
		if existing.User.Email == credentials.User.Email {
			return User{}, persistence.ErrDuplicate
		}
	}
	r.created = credentials
	r.byID[credentials.User.ID] = credentials
	return credentials.User, nil
}

func (r *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	creds, ok := r.byID[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return creds.User, nil
}

func (r *userRepoStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	for _, creds := range r.byID {
		if creds.User.Email == email {
			return creds, nil
		}
	}
	return UserCredentials{}, persistence.ErrNotFound
}

func (r *userRepoStub) ListUsers(ctx context.Context) ([]User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	users := make([]User, 0, len(r.byID))
	for _, creds := range r.byID {
		users = append(users, creds.User)
	}
	return users, nil
}

func plainHasher(password string) (string, error) {
	return "hashed:" + password, nil
}

func TestUserService_CreateUser(t *testing.T) {
	validInput := UserInput{
		Email:       "  Student@Example.edu ",
		DisplayName: " Sam Student ",
		Role:        "Student",
		Password:    "correct horse",
	}

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewUserService(newUserRepoStub(), plainHasher, nil, nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: facultyPrincipal, Input: validInput})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates attributes", func(t *testing.T) {
		svc := NewUserService(newUserRepoStub(), plainHasher, nil, nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: adminPrincipal,
			Input:     UserInput{Email: "not-an-email", Role: "guest", Password: "short"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "display_name", "role", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("normalizes input and stores the password hash", func(t *testing.T) {
		repo := newUserRepoStub()
		now := time.Date(2025, time.August, 20, 9, 0, 0, 0, time.UTC)
		svc := NewUserService(repo, plainHasher, func() string { return "user-1" }, func() time.Time { return now })

		user, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: adminPrincipal, Input: validInput})
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if user.Email != "student@example.edu" || user.DisplayName != "Sam Student" || user.Role != RoleStudent {
			t.Fatalf("unexpected user: %+v", user)
		}
		if repo.created.PasswordHash != "hashed:correct horse" {
			t.Fatalf("expected hashed password, got %q", repo.created.PasswordHash)
		}
	})

	t.Run("maps duplicate emails", func(t *testing.T) {
		repo := newUserRepoStub(UserCredentials{User: User{ID: "existing", Email: "student@example.edu"}})
		svc := NewUserService(repo, plainHasher, func() string { return "user-2" }, nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: adminPrincipal, Input: validInput})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_ListUsers(t *testing.T) {
	repo := newUserRepoStub(
		UserCredentials{User: User{ID: "u2", Email: "zed@example.edu"}},
		UserCredentials{User: User{ID: "u1", Email: "amy@example.edu"}},
	)
	svc := NewUserService(repo, plainHasher, nil, nil)

	if _, err := svc.ListUsers(context.Background(), studentPrincipal); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	users, err := svc.ListUsers(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 || users[0].ID != "u1" || users[1].ID != "u2" {
		t.Fatalf("expected users sorted by email, got %+v", users)
	}
}

func TestUserService_EnsureBootstrapAdmin(t *testing.T) {
	repo := newUserRepoStub()
	svc := NewUserService(repo, plainHasher, func() string { return "admin-1" }, nil)
	ctx := context.Background()

	user, created, err := svc.EnsureBootstrapAdmin(ctx, "Admin@Example.edu", "bootstrap-secret")
	if err != nil {
		t.Fatalf("EnsureBootstrapAdmin failed: %v", err)
	}
	if !created || user.Role != RoleAdmin || user.Email != "admin@example.edu" {
		t.Fatalf("expected a new admin, got created=%v user=%+v", created, user)
	}

	again, created, err := svc.EnsureBootstrapAdmin(ctx, "admin@example.edu", "other-secret")
	if err != nil {
		t.Fatalf("second EnsureBootstrapAdmin failed: %v", err)
	}
	if created || again.ID != user.ID {
		t.Fatalf("expected the existing admin to be kept, got created=%v user=%+v", created, again)
	}
}
