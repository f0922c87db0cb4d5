package security

import (
	"errors"
	"time"

	"garage-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	issuer          = "garage-backend"
	sessionAudience = "session"
)

// SessionClaims is the payload of the session cookie.
type SessionClaims struct {
	ActorID  string          `json:"actor_id"`
	UserType domain.UserType `json:"user_type"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	IssueSession(identity domain.Identity) (token string, expiresAt time.Time, err error)
	ValidateSession(token string) (domain.Identity, error)
	TTL() time.Duration
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *tokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *tokenManager) IssueSession(identity domain.Identity) (string, time.Time, error) {
	if !identity.IsAuthenticated() {
		return "", time.Time{}, ErrInvalidToken
	}
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := SessionClaims{
		ActorID:  identity.ActorID.String(),
		UserType: identity.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ActorID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{sessionAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *tokenManager) ValidateSession(tokenString string) (domain.Identity, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(sessionAudience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrExpiredToken
		}
		return domain.Identity{}, ErrInvalidToken
	}
	if !token.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	actorID, err := uuid.Parse(claims.ActorID)
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}
	identity := domain.Identity{ActorID: actorID, UserType: claims.UserType}
	if !identity.IsAuthenticated() {
		return domain.Identity{}, ErrInvalidToken
	}
	return identity, nil
}
