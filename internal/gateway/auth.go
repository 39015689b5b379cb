package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var errMissingCredential = errors.New("missing bearer credential")

// bearerToken extracts the handshake credential from the Authorization
// header or, for browser WebSocket clients that cannot set headers, the
// token query parameter.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

// authenticate validates the handshake credential and resolves the user
// identity from its subject claim.
func (g *Gateway) authenticate(r *http.Request) (string, error) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		return "", errMissingCredential
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid bearer credential: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("bearer credential carries no subject")
	}
	return subject, nil
}
