package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"signaldesk/internal/domain"
)

// TokenCookie is the name of the cookie carrying the session token
const TokenCookie = "token"

const (
	ctxUserID       = "user_id"
	ctxRole         = "role"
	ctxSubscription = "subscription"
)

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager signing with secret
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Generate generates a new JWT token for a user
func (m *TokenManager) Generate(userID uuid.UUID, role string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := &JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates tokenString and returns its claims
func (m *TokenManager) Parse(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// tokenFromRequest reads the bearer header, falling back to the token cookie
func tokenFromRequest(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		cookie, err := c.Cookie(TokenCookie)
		if err != nil || cookie.Value == "" {
			return "", errors.New("missing authentication token")
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// RoleLookup loads the stored account behind a token
type RoleLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Authenticate validates the session token and sets user context.
// Staff claims are re-read from users so a role change applies to tokens
// already issued. A nil users trusts the token role.
func Authenticate(tokens *TokenManager, users RoleLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := tokenFromRequest(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			role := claims.Role
			if users != nil && role != domain.RoleUser {
				user, err := users.GetUser(c.Request().Context(), claims.UserID)
				if errors.Is(err, domain.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
				}
				if err != nil {
					return fmt.Errorf("failed to load user role: %w", err)
				}
				role = user.Role
			}

			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}

// RequireRoles rejects callers whose role is not in roles. Must run after Authenticate.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, err := GetUserRole(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User role not found in context")
			}
			if _, ok := allowed[role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient role")
			}
			return next(c)
		}
	}
}

// RequireAdmin allows ADMIN only
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRoles(domain.RoleAdmin)
}

// RequireCustomerService allows customer service staff and admins
func RequireCustomerService() echo.MiddlewareFunc {
	return RequireRoles(domain.RoleCustomerService, domain.RoleAdmin)
}

// SubscriptionLookup returns the caller's current subscription or domain.ErrNotFound
type SubscriptionLookup interface {
	Current(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
}

// RequireActiveSubscription answers 402 unless the caller holds an active subscription.
// Admins pass without one.
func RequireActiveSubscription(subs SubscriptionLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role, _ := GetUserRole(c); role == domain.RoleAdmin {
				return next(c)
			}

			userID, err := GetUserID(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			sub, err := subs.Current(c.Request().Context(), userID)
			if errors.Is(err, domain.ErrNotFound) {
				return echo.NewHTTPError(http.StatusPaymentRequired, domain.ErrSubscriptionRequired.Error())
			}
			if err != nil {
				return fmt.Errorf("failed to check subscription: %w", err)
			}

			c.Set(ctxSubscription, sub)
			return next(c)
		}
	}
}

// GetUserID extracts user ID from echo context
func GetUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(ctxUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("user_id not found in context")
	}
	return userID, nil
}

// GetUserRole extracts user role from echo context
func GetUserRole(c echo.Context) (string, error) {
	role, ok := c.Get(ctxRole).(string)
	if !ok {
		return "", fmt.Errorf("role not found in context")
	}
	return role, nil
}

// GetSubscription returns the subscription stored by RequireActiveSubscription, or nil for admins
func GetSubscription(c echo.Context) *domain.Subscription {
	sub, _ := c.Get(ctxSubscription).(*domain.Subscription)
	return sub
}
