package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/clearview/a11yaudit/internal/domain/identity"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity headers injected by the gateway once it has authenticated the
// caller. They take strict priority over token claims: the gateway has
// already validated the caller and must override a stale or
// broader-scoped token.
const (
	UserIDHeader    = "X-User-Id"
	UserEmailHeader = "X-User-Email"
	UserRoleHeader  = "X-User-Role"
	UserNameHeader  = "X-User-Name"
)

// Candidate claim keys per logical field, tried in order. The long-form
// URI alternates come from gateways that re-issue tokens with
// WS-Federation style claim names; adding a future alternate is one
// append here.
var (
	subjectClaimKeys = []string{"sub", "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"}
	roleClaimKeys    = []string{"role", "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"}
	emailClaimKeys   = []string{"email"}
	nameClaimKeys    = []string{"name"}
)

// identitySource resolves a whole identity from one signal source, or
// reports that the source carries no usable signal. Sources never fail
// hard: a malformed value is the same as an absent one.
type identitySource struct {
	name    string
	resolve func(r *http.Request) (identity.Identity, bool)
}

// IdentityResolver populates the request-scoped caller identity from an
// ordered list of sources; the first source that yields a positive
// numeric user id wins outright and later sources are not consulted.
type IdentityResolver struct {
	sources []identitySource
	log     *zap.Logger
}

func NewIdentityResolver(jwtSecret []byte, log *zap.Logger) *IdentityResolver {
	return &IdentityResolver{
		sources: []identitySource{
			{name: "headers", resolve: resolveFromHeaders},
			{name: "claims", resolve: resolveFromClaims(jwtSecret)},
		},
		log: log,
	}
}

// Handler resolves the identity once per request and threads it through
// the request context. Resolution never rejects; an unresolved identity
// stays at its zero value and downstream access control decides.
func (ir *IdentityResolver) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ident identity.Identity
		resolved := ""
		for _, src := range ir.sources {
			if got, ok := src.resolve(r); ok {
				ident, resolved = got, src.name
				break
			}
		}

		if resolved != "" {
			ir.log.Info("caller identity resolved",
				zap.String("source", resolved),
				zap.Int64("user_id", ident.UserID),
				zap.String("role", ident.Role))
		} else {
			ir.log.Debug("no identity signal on request", zap.String("path", r.URL.Path))
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
	})
}

func withIdentity(ctx context.Context, ident identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFromContext extracts the resolved caller identity. The zero
// identity is returned for requests that never went through the
// resolver.
func IdentityFromContext(ctx context.Context) identity.Identity {
	if ident, ok := ctx.Value(identityKey).(identity.Identity); ok {
		return ident
	}
	return identity.Identity{}
}

func resolveFromHeaders(r *http.Request) (identity.Identity, bool) {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		return identity.Identity{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return identity.Identity{}, false
	}
	return identity.Identity{
		UserID:      id,
		Email:       r.Header.Get(UserEmailHeader),
		DisplayName: r.Header.Get(UserNameHeader),
		Role:        r.Header.Get(UserRoleHeader),
	}, true
}

func resolveFromClaims(secret []byte) func(r *http.Request) (identity.Identity, bool) {
	return func(r *http.Request) (identity.Identity, bool) {
		auth := r.Header.Get("Authorization")
		if auth == "" || len(secret) == 0 {
			return identity.Identity{}, false
		}
		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if raw == "" {
			return identity.Identity{}, false
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !tok.Valid {
			return identity.Identity{}, false
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return identity.Identity{}, false
		}

		id := firstIntClaim(claims, subjectClaimKeys)
		if id <= 0 {
			return identity.Identity{}, false
		}
		return identity.Identity{
			UserID:      id,
			Email:       firstStringClaim(claims, emailClaimKeys),
			DisplayName: firstStringClaim(claims, nameClaimKeys),
			Role:        firstStringClaim(claims, roleClaimKeys),
		}, true
	}
}

// firstIntClaim returns the first candidate claim that parses as a
// positive integer. JSON numbers arrive as float64; string subjects are
// common with re-issued tokens, so both are accepted.
func firstIntClaim(claims jwt.MapClaims, keys []string) int64 {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && id > 0 {
				return id
			}
		case float64:
			if v > 0 && v == math.Trunc(v) {
				return int64(v)
			}
		}
	}
	return 0
}

func firstStringClaim(claims jwt.MapClaims, keys []string) string {
	for _, k := range keys {
		if s, ok := claims[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
