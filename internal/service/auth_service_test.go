package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"signaldesk/internal/domain"
	"signaldesk/pkg/logger"
)

func newTestAuthService(users *mockUserRepo, notes *mockNotifications) *authService {
	svc := NewAuthService(users, fakeTokens{}, notes, logger.NewNop()).(*authService)
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func bcryptHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates USER and raises a sign-up notification", func(t *testing.T) {
		users := &mockUserRepo{}
		notes := &mockNotifications{}
		svc := newTestAuthService(users, notes)

		users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "jane@example.com" && u.Role == domain.RoleUser &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cretpass")) == nil
		})).Return(nil)
		notes.On("Notify", ctx, mock.MatchedBy(func(n *domain.AdminNotification) bool {
			return n.Kind == domain.NotificationSignup && strings.Contains(n.Message, "jane@example.com")
		})).Return(nil)

		user, err := svc.SignUp(ctx, "  Jane@Example.com ", "s3cretpass", "Jane Doe")
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", user.Email)
		users.AssertExpectations(t)
		notes.AssertExpectations(t)
	})

	t.Run("notification failure does not fail sign-up", func(t *testing.T) {
		users := &mockUserRepo{}
		notes := &mockNotifications{}
		svc := newTestAuthService(users, notes)

		users.On("Create", ctx, mock.Anything).Return(nil)
		notes.On("Notify", ctx, mock.Anything).Return(assert.AnError)

		_, err := svc.SignUp(ctx, "jane@example.com", "s3cretpass", "Jane")
		assert.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := &mockUserRepo{}
		svc := newTestAuthService(users, &mockNotifications{})
		users.On("Create", ctx, mock.Anything).Return(domain.ErrAlreadyExists)

		_, err := svc.SignUp(ctx, "jane@example.com", "s3cretpass", "Jane")
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	invalid := []struct {
		name, email, password, fullName string
	}{
		{"bad email", "not-an-email", "s3cretpass", "Jane"},
		{"email without domain dot", "jane@localhost", "s3cretpass", "Jane"},
		{"short password", "jane@example.com", "short", "Jane"},
		{"long name", "jane@example.com", "s3cretpass", strings.Repeat("x", 121)},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestAuthService(&mockUserRepo{}, &mockNotifications{})
			_, err := svc.SignUp(ctx, tc.email, tc.password, tc.fullName)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAuthService_SignIn(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "jane@example.com", Role: domain.RoleUser, PasswordHash: bcryptHash(t, "s3cretpass")}

	t.Run("valid credentials", func(t *testing.T) {
		users := &mockUserRepo{}
		users.On("GetByEmail", ctx, "jane@example.com").Return(user, nil)
		svc := newTestAuthService(users, &mockNotifications{})

		got, token, err := svc.SignIn(ctx, "JANE@example.com", "s3cretpass")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "token-"+user.ID.String(), token)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		users := &mockUserRepo{}
		users.On("GetByEmail", ctx, "jane@example.com").Return(user, nil)
		users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrNotFound)
		svc := newTestAuthService(users, &mockNotifications{})

		_, _, err := svc.SignIn(ctx, "jane@example.com", "wrongpass")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

		_, _, err = svc.SignIn(ctx, "ghost@example.com", "s3cretpass")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("legacy hash is accepted and upgraded", func(t *testing.T) {
		legacy := &domain.User{ID: uuid.New(), Email: "old@example.com", Role: domain.RoleUser, PasswordHash: LegacyHash("oldpassword")}
		users := &mockUserRepo{}
		users.On("GetByEmail", ctx, "old@example.com").Return(legacy, nil)
		users.On("UpdatePasswordHash", ctx, legacy.ID, mock.MatchedBy(func(h string) bool {
			return bcrypt.CompareHashAndPassword([]byte(h), []byte("oldpassword")) == nil
		})).Return(nil)
		svc := newTestAuthService(users, &mockNotifications{})

		_, _, err := svc.SignIn(ctx, "old@example.com", "oldpassword")
		require.NoError(t, err)
		users.AssertExpectations(t)
		assert.False(t, strings.HasPrefix(legacy.PasswordHash, legacyHashPrefix))
	})

	t.Run("legacy hash with wrong password", func(t *testing.T) {
		legacy := &domain.User{ID: uuid.New(), Email: "old@example.com", PasswordHash: LegacyHash("oldpassword")}
		users := &mockUserRepo{}
		users.On("GetByEmail", ctx, "old@example.com").Return(legacy, nil)
		svc := newTestAuthService(users, &mockNotifications{})

		_, _, err := svc.SignIn(ctx, "old@example.com", "guess")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		users.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), PasswordHash: bcryptHash(t, "s3cretpass")}

	users := &mockUserRepo{}
	users.On("GetByID", ctx, user.ID).Return(user, nil)
	users.On("UpdatePasswordHash", ctx, user.ID, mock.AnythingOfType("string")).Return(nil)
	svc := newTestAuthService(users, &mockNotifications{})

	assert.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "wrong", "newpassword"), domain.ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "s3cretpass", "short"), domain.ErrInvalidInput)
	assert.NoError(t, svc.ChangePassword(ctx, user.ID, "s3cretpass", "newpassword"))
	users.AssertNumberOfCalls(t, "UpdatePasswordHash", 1)
}

func TestAuthService_CreateStaff(t *testing.T) {
	ctx := context.Background()
	users := &mockUserRepo{}
	users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool { return u.Role == domain.RoleCustomerService })).Return(nil)
	svc := newTestAuthService(users, &mockNotifications{})

	_, err := svc.CreateStaff(ctx, "cs@example.com", "s3cretpass", "Support", domain.RoleCustomerService)
	require.NoError(t, err)

	_, err = svc.CreateStaff(ctx, "cs@example.com", "s3cretpass", "Support", "ROOT")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompareLegacyHash(t *testing.T) {
	stored := LegacyHash("hunter22")
	assert.True(t, strings.HasPrefix(stored, "sha256$"))
	assert.True(t, compareLegacyHash(stored, "hunter22"))
	assert.True(t, compareLegacyHash(legacyHashPrefix+strings.ToUpper(stored[len(legacyHashPrefix):]), "hunter22"))
	assert.False(t, compareLegacyHash(stored, "hunter23"))
}
