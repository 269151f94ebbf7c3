package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/gamehub/internal/backend"
)

// stubLockout locks an account after limit failures.
type stubLockout struct {
	limit    int
	failures map[string]int
}

func (l *stubLockout) IsAccountLocked(email string) (bool, time.Duration) {
	return l.failures[email] >= l.limit, time.Minute
}

func (l *stubLockout) RecordFailedAttempt(email string) (bool, time.Duration) {
	l.failures[email]++
	return l.failures[email] >= l.limit, time.Minute
}

func (l *stubLockout) RecordSuccessfulLogin(email string) {
	delete(l.failures, email)
}

func TestSignUpAndSignIn(t *testing.T) {
	s := NewAuthStore(testDB(t))
	ctx := context.Background()

	id, err := s.SignUp(ctx, "browser-1", "A@X.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", id.Email)
	assert.NotEmpty(t, id.UID)

	current, err := s.CurrentIdentity(ctx, "browser-1")
	require.NoError(t, err)
	require.NotNil(t, current, "sign-up signs the client in")
	assert.Equal(t, id.UID, current.UID)

	other, err := s.CurrentIdentity(ctx, "browser-2")
	require.NoError(t, err)
	assert.Nil(t, other)

	signedIn, err := s.SignIn(ctx, "browser-2", "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id.UID, signedIn.UID)
}

func TestFirstAccount(t *testing.T) {
	s := NewAuthStore(testDB(t))
	ctx := context.Background()

	first, err := s.FirstAccount(ctx)
	require.NoError(t, err)
	assert.Empty(t, first)

	a, err := s.SignUp(ctx, "browser-1", "a@x.com", "secret1")
	require.NoError(t, err)
	_, err = s.SignUp(ctx, "browser-2", "b@x.com", "secret1")
	require.NoError(t, err)

	first, err = s.FirstAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.UID, first)
}

func TestSignUpErrors(t *testing.T) {
	s := NewAuthStore(testDB(t))
	ctx := context.Background()

	_, err := s.SignUp(ctx, "c1", "a@x.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"email in use", "a@x.com", "secret2", backend.ErrEmailInUse},
		{"email in use other case", "A@x.COM", "secret2", backend.ErrEmailInUse},
		{"weak password", "b@x.com", "12345", backend.ErrWeakPassword},
		{"invalid email", "not-an-email", "secret2", backend.ErrInvalidEmail},
		{"display name form", "Bob <b@x.com>", "secret2", backend.ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignUp(ctx, "c2", tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignInErrors(t *testing.T) {
	s := NewAuthStore(testDB(t))
	ctx := context.Background()

	_, err := s.SignUp(ctx, "c1", "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = s.SignIn(ctx, "c2", "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, backend.ErrUserNotFound)

	_, err = s.SignIn(ctx, "c2", "a@x.com", "wrong-pass")
	assert.ErrorIs(t, err, backend.ErrWrongPassword)

	_, err = s.SignIn(ctx, "c2", "bad", "secret1")
	assert.ErrorIs(t, err, backend.ErrInvalidEmail)

	current, err := s.CurrentIdentity(ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, current, "failed sign-in must not bind the client")
}

func TestSignInLockout(t *testing.T) {
	lockout := &stubLockout{limit: 2, failures: map[string]int{}}
	s := NewAuthStore(testDB(t), WithLockout(lockout))
	ctx := context.Background()

	_, err := s.SignUp(ctx, "c1", "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = s.SignIn(ctx, "c2", "a@x.com", "nope-1")
	assert.ErrorIs(t, err, backend.ErrWrongPassword)
	_, err = s.SignIn(ctx, "c2", "a@x.com", "nope-2")
	assert.ErrorIs(t, err, backend.ErrTooManyAttempts)
	_, err = s.SignIn(ctx, "c2", "a@x.com", "secret1")
	assert.ErrorIs(t, err, backend.ErrTooManyAttempts, "locked account rejects correct password")
}

func TestMinPasswordLengthOption(t *testing.T) {
	s := NewAuthStore(testDB(t), WithMinPasswordLength(10))

	_, err := s.SignUp(context.Background(), "c1", "a@x.com", "secret1")
	assert.ErrorIs(t, err, backend.ErrWeakPassword)
}

func TestOnIdentityChange(t *testing.T) {
	s := NewAuthStore(testDB(t))
	ctx := context.Background()

	var seen []*backend.Identity
	unsubscribe, err := s.OnIdentityChange(ctx, "c1", func(id *backend.Identity) {
		seen = append(seen, id)
	})
	require.NoError(t, err)

	require.Len(t, seen, 1, "fires immediately")
	assert.Nil(t, seen[0])

	id, err := s.SignUp(ctx, "c1", "a@x.com", "secret1")
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.NotNil(t, seen[1])
	assert.Equal(t, id.UID, seen[1].UID)

	// Another client's changes are not observed.
	_, err = s.SignIn(ctx, "c2", "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Len(t, seen, 2)

	require.NoError(t, s.SignOut(ctx, "c1"))
	require.Len(t, seen, 3)
	assert.Nil(t, seen[2])

	// Signing out twice emits nothing new.
	require.NoError(t, s.SignOut(ctx, "c1"))
	assert.Len(t, seen, 3)

	unsubscribe()
	_, err = s.SignIn(ctx, "c1", "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}
