package helpers

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind is carried in the "category" claim so a refresh token can never
// be accepted where an access token is expected, and vice versa.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

var ErrWrongTokenKind = errors.New("wrong token category")

// JWTManager handles generation and validation of JWT tokens
type JWTManager struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	now func() time.Time
}

var defaultManager *JWTManager

func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	m := &JWTManager{
		Secret:     []byte(secret),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		now:        time.Now,
	}
	defaultManager = m
	return m
}

// DefaultJWT returns the last constructed JWTManager (used for auto-wiring routes)
func DefaultJWT() *JWTManager { return defaultManager }

// WithClock swaps the time source used for iat/exp and validation.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	m.now = now
	return m
}

type Claims struct {
	Category TokenKind `json:"category"`
	UserID   int64     `json:"id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token of the given kind. The jti claim makes every issued
// token distinct even when two are minted within the same second.
func (m *JWTManager) Issue(userID int64, email, role string, kind TokenKind, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(ttl)
	claims := &Claims{
		Category: kind,
		UserID:   userID,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

func (m *JWTManager) GenerateAccessToken(userID int64, email, role string) (string, time.Time, error) {
	return m.Issue(userID, email, role, TokenAccess, m.AccessTTL)
}

func (m *JWTManager) GenerateRefreshToken(userID int64, email, role string) (string, time.Time, error) {
	return m.Issue(userID, email, role, TokenRefresh, m.RefreshTTL)
}

// Parse verifies signature and expiry. Expired tokens fail with an error
// matching jwt.ErrTokenExpired.
func (m *JWTManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Category != TokenAccess {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}

func IsTokenExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
