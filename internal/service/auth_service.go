package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"signaldesk/internal/domain"
	"signaldesk/pkg/logger"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
	maxFullNameLength = 120

	// legacyHashPrefix marks unsalted SHA-256 hashes carried over from the previous product
	legacyHashPrefix = "sha256$"
)

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Generate(userID uuid.UUID, role string) (string, time.Time, error)
}

// AuthService handles sign-up, sign-in and password changes
type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, string, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// CreateStaff creates an account with any role; used by the CLI to bootstrap staff
	CreateStaff(ctx context.Context, email, password, fullName, role string) (*domain.User, error)
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	tokens TokenIssuer,
	notifications NotificationService,
	log *logger.Logger,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		tokens:        tokens,
		notifications: notifications,
		logger:        log,
		bcryptCost:    bcrypt.DefaultCost,
	}
}

type authService struct {
	userRepo      domain.UserRepository
	tokens        TokenIssuer
	notifications NotificationService
	logger        *logger.Logger
	bcryptCost    int
}

func (s *authService) SignUp(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	user, err := s.createUser(ctx, email, password, fullName, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	note := &domain.AdminNotification{
		Kind:    domain.NotificationSignup,
		Title:   "New sign-up",
		Message: fmt.Sprintf("%s (%s) created an account", user.Email, user.FullName),
		UserID:  &user.ID,
	}
	if err := s.notifications.Notify(ctx, note); err != nil {
		s.logger.Warn("Failed to record sign-up notification", logger.ErrorField(err), logger.Field("user_id", user.ID))
	}
	return user, nil
}

func (s *authService) CreateStaff(ctx context.Context, email, password, fullName, role string) (*domain.User, error) {
	if !domain.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	return s.createUser(ctx, email, password, fullName, role)
}

func (s *authService) createUser(ctx context.Context, email, password, fullName, role string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if utf8.RuneCountInString(fullName) > maxFullNameLength {
		return nil, fmt.Errorf("%w: full name must be at most %d characters", domain.ErrInvalidInput, maxFullNameLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to create user", logger.ErrorField(err))
		}
		return nil, err
	}

	s.logger.Info("User created", logger.Field("user_id", user.ID), logger.Field("role", role))
	return user, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	legacy, ok := s.checkPassword(user.PasswordHash, password)
	if !ok {
		return nil, "", domain.ErrInvalidCredentials
	}

	if legacy {
		s.upgradeHash(ctx, user, password)
	}

	token, _, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// checkPassword compares password against hash, which is bcrypt or a legacy sha256 hash
func (s *authService) checkPassword(hash, password string) (legacy bool, ok bool) {
	if strings.HasPrefix(hash, legacyHashPrefix) {
		return true, compareLegacyHash(hash, password)
	}
	return false, bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// upgradeHash replaces a legacy hash with bcrypt after a successful sign-in
func (s *authService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.logger.Warn("Failed to rehash legacy password", logger.ErrorField(err), logger.Field("user_id", user.ID))
		return
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		s.logger.Warn("Failed to store upgraded password hash", logger.ErrorField(err), logger.Field("user_id", user.ID))
		return
	}
	user.PasswordHash = string(hash)
	s.logger.Info("Upgraded legacy password hash", logger.Field("user_id", user.ID))
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := s.checkPassword(user.PasswordHash, oldPassword); !ok {
		return domain.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePasswordHash(ctx, userID, string(hash))
}

func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// LegacyHash renders password in the legacy "sha256$<hex>" format
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return legacyHashPrefix + hex.EncodeToString(sum[:])
}

func compareLegacyHash(stored, password string) bool {
	expected := LegacyHash(password)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(expected)) == 1
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordLength)
	}
	return nil
}
