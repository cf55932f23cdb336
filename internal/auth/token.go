// Package auth issues seat tokens and checks the admin credential.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "uno-server"

var (
	ErrTokenRequired = errors.New("seat token is required")
	ErrTokenInvalid  = errors.New("seat token is invalid")
	ErrTokenExpired  = errors.New("seat token is expired")
	ErrTokenMismatch = errors.New("seat token belongs to another game")
	ErrNoSecret      = errors.New("token secret is not configured")
)

type seatClaims struct {
	jwt.RegisteredClaims
	GameID string `json:"game_id"`
	Seat   *int   `json:"seat"`
}

// TokenIssuer signs and verifies HS256 seat tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer for secret. A zero ttl means 24 hours.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token granting seat in gameID.
func (ti *TokenIssuer) Issue(gameID string, seat int) (string, error) {
	now := ti.now().UTC()
	claims := seatClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%s/%d", gameID, seat),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		GameID: gameID,
		Seat:   &seat,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign seat token: %w", err)
	}
	return signed, nil
}

// Verify checks token and returns the seat it grants in gameID.
func (ti *TokenIssuer) Verify(token, gameID string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrTokenRequired
	}

	var parsed seatClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return 0, mapJWTError(err)
	}
	if parsed.Seat == nil || *parsed.Seat < 0 {
		return 0, fmt.Errorf("%w: seat claim missing", ErrTokenInvalid)
	}
	if parsed.GameID != gameID {
		return 0, ErrTokenMismatch
	}
	return *parsed.Seat, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}
