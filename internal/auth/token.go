package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/watchhub/watchlist-api/internal/domain"
)

// ErrNoToken indicates the request carried no bearer token at all.
var ErrNoToken = errors.New("auth: no bearer token")

// ErrInvalidToken indicates a present but unusable token.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Claims is the JWT payload minted by the external token issuer.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens signed with the shared HS256 secret.
// Token issuance lives outside this service.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse validates a raw token string and extracts the caller identity.
func (v *Verifier) Parse(tokenString string) (*domain.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &domain.Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// FromRequest extracts and validates the Authorization header. It returns
// (nil, nil) for anonymous requests so callers can distinguish "no token"
// from "bad token".
func (v *Verifier) FromRequest(r *http.Request) (*domain.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, ErrInvalidToken
	}
	return v.Parse(strings.TrimSpace(parts[1]))
}
