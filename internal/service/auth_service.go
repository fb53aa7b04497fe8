package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/boqflow/boqflow/internal/domain"
)

// AuthService handles login and token validation. It issues short-lived
// JWTs carrying the caller's id, role and tenant; the lifecycle engine
// only ever sees the resulting Identity.
type AuthService struct {
	users     UserStore
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, jwtSecret string) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
	}
}

// Login validates credentials and returns a bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenResponse, *domain.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	expiresIn := 8 * 3600 // one field shift
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)

	claims := jwt.MapClaims{
		"sub":    user.ID.String(),
		"tenant": user.TenantID.String(),
		"role":   string(user.Role),
		"name":   user.Name,
		"exp":    expiresAt.Unix(),
		"iat":    time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, nil, err
	}

	return &domain.TokenResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	}, user, nil
}

// ValidateToken parses a bearer token into the caller Identity
func (s *AuthService) ValidateToken(tokenString string) (*domain.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredentials
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	tenantStr, ok := claims["tenant"].(string)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	tenantID, err := uuid.Parse(tenantStr)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	roleStr, _ := claims["role"].(string)
	role := domain.Role(roleStr)
	if role != domain.RoleOperator && role != domain.RoleAdmin {
		return nil, ErrInvalidCredentials
	}

	name, _ := claims["name"].(string)

	return &domain.Identity{
		ID:       userID,
		TenantID: tenantID,
		Role:     role,
		Name:     name,
	}, nil
}
