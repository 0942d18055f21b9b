package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"prequal-service/domain"
)

// Claims mirrors the access tokens issued by the identity provider: the user
// id is the subject, email is carried alongside.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Principal is the caller a request acts for.
type Principal struct {
	ID            string
	Email         string
	Authenticated bool
}

// OwnerID is the key certificates are stored under.
func (p Principal) OwnerID() string {
	if !p.Authenticated {
		return domain.AnonymousOwner
	}
	return p.ID
}

type contextKey string

const principalContextKey contextKey = "principal"

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the request principal, anonymous when none was attached.
func PrincipalFromContext(ctx context.Context) Principal {
	p, ok := ctx.Value(principalContextKey).(Principal)
	if !ok {
		return Principal{}
	}
	return p
}

// Authenticator validates HS256 bearer tokens.
type Authenticator struct {
	secret   []byte
	issuer   string
	required bool
	logger   *zap.Logger
}

// NewAuthenticator creates an Authenticator. With an empty secret no token
// can be verified and every caller is anonymous.
func NewAuthenticator(secret, issuer string, required bool, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		issuer:   issuer,
		required: required,
		logger:   logger,
	}
}

// Middleware attaches the request principal. Invalid tokens are rejected;
// missing tokens are rejected only when authentication is required.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present := bearerToken(r)

		if !present || len(a.secret) == 0 {
			if a.required {
				writeError(w, r, a.logger, http.StatusUnauthorized, "unauthenticated", "missing bearer token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), Principal{})))
			return
		}

		claims, err := a.ValidateToken(token)
		if err != nil {
			a.logger.Debug("rejected bearer token", zap.Error(err))
			writeError(w, r, a.logger, http.StatusUnauthorized, "unauthenticated", "invalid bearer token", nil)
			return
		}

		p := Principal{ID: claims.Subject, Email: claims.Email, Authenticated: true}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

// RequireAuthenticated rejects anonymous principals.
func (a *Authenticator) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFromContext(r.Context()).Authenticated {
			writeError(w, r, a.logger, http.StatusUnauthorized, "unauthenticated", "sign in to list certificates", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return header, true
	}
	return strings.TrimSpace(token), true
}
