package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nprocess/compliance-api/internal/models"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
)

type TokenService struct {
	secret       []byte
	serviceToken []byte
	expiry       time.Duration
}

// Claims are the platform's custom claims. org_id, role and status mirror
// the identity provider's custom-claim block; absent values fall back to
// guest/pending at verification time.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	OrgID  string    `json:"org_id,omitempty"`
	Role   string    `json:"role,omitempty"`
	Status string    `json:"status,omitempty"`
	jwt.RegisteredClaims
}

func NewTokenService(secret, serviceToken string, expiry time.Duration) *TokenService {
	return &TokenService{
		secret:       []byte(secret),
		serviceToken: []byte(serviceToken),
		expiry:       expiry,
	}
}

func (s *TokenService) IssueToken(user *models.User) (string, int64, error) {
	now := time.Now()

	orgID := ""
	if user.OrgID != nil {
		orgID = *user.OrgID
	}

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		OrgID:  orgID,
		Role:   user.Role,
		Status: user.Status,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "compliance-api",
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, int64(s.expiry.Seconds()), nil
}

// Verify parses and validates a bearer token. Missing role/status claims
// default to guest/pending so an incomplete token never gains privilege.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Role == "" {
		claims.Role = models.RoleGuest
	}
	if claims.Status == "" {
		claims.Status = models.StatusPending
	}

	return claims, nil
}

// IsServiceToken reports whether the bearer value is the configured internal
// service token. Constant-time compare; an empty configured token never
// matches.
func (s *TokenService) IsServiceToken(tokenString string) bool {
	if len(s.serviceToken) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(tokenString), s.serviceToken) == 1
}
