package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("secret-pass", Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)
		creds := &credentialStoreStub{
			credentials: UserCredentials{
				User:         User{ID: "user-1", Email: "user@example.edu", Role: RoleStudent},
				PasswordHash: hash,
			},
		}

		repo := newSessionRepositoryStub()
		tokenSeq := []string{"session-id", "session-token"}
		svc := NewAuthService(creds, repo, nil, func() string {
			if len(tokenSeq) == 0 {
				return "fallback"
			}
			token := tokenSeq[0]
			tokenSeq = tokenSeq[1:]
			return token
		}, func() time.Time { return now }, time.Hour)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: " User@example.edu ", Password: "secret-pass"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}

		if result.Session.ID != "session-id" || result.Session.Token != "session-token" {
			t.Fatalf("unexpected session: %#v", result.Session)
		}
		if !result.Session.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("expected expiry one hour out, got %v", result.Session.ExpiresAt)
		}
		if len(repo.deleteCalls) != 1 || !repo.deleteCalls[0].Equal(now) {
			t.Fatalf("expected DeleteExpiredSessions to be called with now, got %#v", repo.deleteCalls)
		}
	})

	t.Run("rejects invalid credentials with sentinel error", func(t *testing.T) {
		t.Parallel()

		creds := &credentialStoreStub{
			credentials: UserCredentials{User: User{ID: "user", Role: RoleStudent}, PasswordHash: hash},
		}
		svc := NewAuthService(creds, newSessionRepositoryStub(), nil, nil, time.Now, time.Hour)

		for _, params := range []AuthenticateParams{
			{Email: "user@example.edu", Password: "wrong"},
			{Email: "", Password: "secret-pass"},
			{Email: "user@example.edu", Password: ""},
		} {
			_, err := svc.Authenticate(context.Background(), params)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials for %+v, got %v", params, err)
			}
		}
	})

	t.Run("hides unknown emails behind invalid credentials", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(&credentialStoreStub{}, newSessionRepositoryStub(), nil, nil, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "nobody@example.edu", Password: "secret-pass"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		creds := &credentialStoreStub{
			credentials: UserCredentials{User: User{ID: "user"}, PasswordHash: "stored"},
		}
		repo := newSessionRepositoryStub()
		repo.createErr = expected
		accept := func(string, string) error { return nil }

		svc := NewAuthService(creds, repo, accept, func() string { return "token" }, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.edu", Password: "secret"})
		if !errors.Is(err, expected) {
			t.Fatalf("expected error %v, got %v", expected, err)
		}
	})

	t.Run("propagates cleanup failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("cleanup-failed")
		creds := &credentialStoreStub{
			credentials: UserCredentials{User: User{ID: "user"}, PasswordHash: "stored"},
		}
		repo := newSessionRepositoryStub()
		repo.deleteErr = expected
		accept := func(string, string) error { return nil }

		svc := NewAuthService(creds, repo, accept, func() string { return "token" }, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.edu", Password: "secret"})
		if !errors.Is(err, expected) {
			t.Fatalf("expected cleanup error %v, got %v", expected, err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	t.Run("revokes active sessions", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)
		repo := newSessionRepositoryStub()
		repo.seed(Session{ID: "session-1", UserID: "user", Token: "token", ExpiresAt: now.Add(time.Hour), UpdatedAt: now, CreatedAt: now})

		svc := NewAuthService(nil, repo, nil, nil, func() time.Time { return now }, time.Hour)

		if err := svc.RevokeSession(context.Background(), "token"); err != nil {
			t.Fatalf("RevokeSession failed: %v", err)
		}

		stored := repo.sessionsByID["session-1"]
		if stored.RevokedAt == nil || !stored.RevokedAt.Equal(now) {
			t.Fatalf("expected RevokedAt to be set, got %#v", stored.RevokedAt)
		}
		if len(repo.deleteCalls) == 0 {
			t.Fatalf("expected DeleteExpiredSessions to be invoked")
		}
	})

	t.Run("requires non-empty token", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(nil, newSessionRepositoryStub(), nil, nil, time.Now, time.Hour)

		if err := svc.RevokeSession(context.Background(), "  "); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("maps missing tokens to invalid credentials", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(nil, newSessionRepositoryStub(), nil, nil, time.Now, time.Hour)

		if err := svc.RevokeSession(context.Background(), "missing"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		repo := newSessionRepositoryStub()
		repo.revokeErr = expected
		svc := NewAuthService(nil, repo, nil, nil, time.Now, time.Hour)

		if err := svc.RevokeSession(context.Background(), "token"); !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)
	admin := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "user-1", Role: RoleAdmin}}}

	t.Run("returns principal for active session", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepositoryStub()
		repo.seed(Session{ID: "session-1", UserID: "user-1", Token: "token", ExpiresAt: now.Add(time.Hour), UpdatedAt: now, CreatedAt: now})
		svc := NewAuthService(admin, repo, nil, nil, func() time.Time { return now }, time.Hour)

		principal, err := svc.ValidateSession(context.Background(), " token ")
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}

		if principal.UserID != "user-1" || principal.Role != RoleAdmin {
			t.Fatalf("unexpected principal: %#v", principal)
		}
	})

	t.Run("rejects expired sessions", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepositoryStub()
		repo.seed(Session{ID: "session-1", UserID: "user-1", Token: "token", ExpiresAt: now, UpdatedAt: now, CreatedAt: now})
		svc := NewAuthService(admin, repo, nil, nil, func() time.Time { return now }, time.Hour)

		_, err := svc.ValidateSession(context.Background(), "token")
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("rejects revoked sessions", func(t *testing.T) {
		t.Parallel()

		revoked := now.Add(-time.Minute)
		repo := newSessionRepositoryStub()
		repo.seed(Session{ID: "session-1", UserID: "user-1", Token: "token", ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked, UpdatedAt: now, CreatedAt: now})
		svc := NewAuthService(admin, repo, nil, nil, func() time.Time { return now }, time.Hour)

		_, err := svc.ValidateSession(context.Background(), "token")
		if !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("rejects empty and unknown tokens", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(admin, newSessionRepositoryStub(), nil, nil, func() time.Time { return now }, time.Hour)

		for _, token := range []string{"  ", "unknown"} {
			_, err := svc.ValidateSession(context.Background(), token)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials for %q, got %v", token, err)
			}
		}
	})

	t.Run("rejects sessions whose user record is missing", func(t *testing.T) {
		t.Parallel()

		creds := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "other"}}}
		repo := newSessionRepositoryStub()
		repo.seed(Session{ID: "session-1", UserID: "user-1", Token: "token", ExpiresAt: now.Add(time.Hour), UpdatedAt: now, CreatedAt: now})
		svc := NewAuthService(creds, repo, nil, nil, func() time.Time { return now }, time.Hour)

		_, err := svc.ValidateSession(context.Background(), "token")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		repo := newSessionRepositoryStub()
		repo.getErr = expected
		svc := NewAuthService(admin, repo, nil, nil, func() time.Time { return now }, time.Hour)

		_, err := svc.ValidateSession(context.Background(), "token")
		if !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	params := Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
	hash, err := CreatePasswordHash("correct horse", params)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}

	if err := VerifyPassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "battery staple"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := VerifyPassword("plaintext", "plaintext"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
}

// credentialStoreStub implements CredentialStore for tests.
type credentialStoreStub struct {
	credentials UserCredentials
	err         error
}

func (c *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	if c.err != nil {
		return UserCredentials{}, c.err
	}
	if c.credentials.User.ID == "" {
		return UserCredentials{}, ErrNotFound
	}
	return c.credentials, nil
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if c.err != nil {
		return User{}, c.err
	}
	if c.credentials.User.ID == id {
		return c.credentials.User, nil
	}
	return User{}, ErrNotFound
}

// sessionRepositoryStub stores sessions in memory.
type sessionRepositoryStub struct {
	mu           sync.Mutex
	sessionsByID map[string]Session
	createErr    error
	getErr       error
	revokeErr    error
	deleteErr    error
	deleteCalls  []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessionsByID: make(map[string]Session)}
}

func (s *sessionRepositoryStub) seed(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionsByID[session.ID] = session
}

func (s *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.sessionsByID[session.ID] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(ctx context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Session{}, s.getErr
	}
	for _, session := range s.sessionsByID {
		if session.Token == token {
			return session, nil
		}
	}
	return Session{}, ErrNotFound
}

func (s *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revokeErr != nil {
		return Session{}, s.revokeErr
	}
	for id, session := range s.sessionsByID {
		if session.Token == token {
			ts := revokedAt
			session.RevokedAt = &ts
			session.UpdatedAt = revokedAt
			s.sessionsByID[id] = session
			return session, nil
		}
	}
	return Session{}, ErrNotFound
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, reference)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return nil
}
