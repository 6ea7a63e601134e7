package transport

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueSessionToken signs a session token binding the bearer to sessionID,
// valid for ttl. Call this once when a session is created and hand the
// result to the client for use on every Session Channel connect/reconnect.
func IssueSessionToken(secret, sessionID string, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// sessionClaims is the JWT claim set carried by a session token. Binding
// the token to one session_id means a token issued for session A cannot be
// replayed to rebind session B.
type sessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// verifySessionToken checks the bearer token on r against secret and
// confirms its session_id claim matches sessionID. An empty secret skips
// verification entirely (local development only — see AuthConfig.JWTSecret).
func verifySessionToken(r *http.Request, sessionID, secret string) error {
	if secret == "" {
		return nil
	}

	raw := bearerToken(r)
	if raw == "" {
		return fmt.Errorf("transport: missing session token")
	}

	token, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("transport: invalid session token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("transport: invalid session token")
	}
	if claims.SessionID != sessionID {
		return fmt.Errorf("transport: session token does not authorize session %q", sessionID)
	}
	return nil
}

// bearerToken extracts the session token from the "token" query parameter
// (the common case for a browser WebSocket client, which cannot set
// arbitrary headers on the upgrade request) or the Authorization header.
func bearerToken(r *http.Request) string {
	if q := r.URL.Query().Get("token"); q != "" {
		return q
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, prefix) {
		return strings.TrimPrefix(h, prefix)
	}
	return ""
}
