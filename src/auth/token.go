package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/oops"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by API bearer tokens. The subject is the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return 0, oops.New(ErrInvalidToken, "token subject %q is not a user id", c.Subject)
	}
	return id, nil
}

func IssueToken(cfg config.AuthConfig, userID int, username string, now time.Time) (string, error) {
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			Issuer:    cfg.TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.TokenSecret))
	if err != nil {
		return "", oops.New(err, "failed to sign token")
	}
	return signed, nil
}

// Parses and verifies a token, with or without a "Bearer " prefix. Any
// failure wraps ErrInvalidToken.
func ParseToken(cfg config.AuthConfig, tokenString string) (*Claims, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if clean == "" {
		return nil, oops.New(ErrInvalidToken, "no token provided")
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(clean, &claims,
		func(t *jwt.Token) (any, error) {
			return []byte(cfg.TokenSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, oops.New(ErrInvalidToken, "failed to verify token: %v", err)
	}

	return &claims, nil
}
