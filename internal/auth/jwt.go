package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yoomapp/yoom-web/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// SessionCookie is the cookie the identity provider sets on sign-in.
const SessionCookie = "__session"

var ErrNoCredentials = errors.New("no session credentials")

type Claims struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	jwt.RegisteredClaims
}

type VerifierOptions struct {
	// Secret verifies HS256 session tokens.
	Secret string
	// PublicKeyPEM verifies RS256 session tokens; takes precedence over Secret.
	PublicKeyPEM string
	Issuer       string
}

// Verifier answers whether a request carries a valid session issued by the
// identity provider. It never creates sessions.
type Verifier struct {
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
}

func NewVerifier(opts VerifierOptions) (*Verifier, error) {
	parserOpts := []jwt.ParserOption{jwt.WithExpirationRequired(), jwt.WithLeeway(5 * time.Second)}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	var keyFunc jwt.Keyfunc
	switch {
	case strings.TrimSpace(opts.PublicKeyPEM) != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse session public key: %w", err)
		}
		parserOpts = append(parserOpts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		keyFunc = func(*jwt.Token) (any, error) { return key, nil }
	case opts.Secret != "":
		secret := []byte(opts.Secret)
		parserOpts = append(parserOpts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		keyFunc = func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		}
	default:
		return nil, errors.New("session secret or public key is required")
	}

	return &Verifier{keyFunc: keyFunc, parser: jwt.NewParser(parserOpts...)}, nil
}

// Authenticate returns the user for a valid session token taken from the
// session cookie or a bearer Authorization header.
func (v *Verifier) Authenticate(r *http.Request) (model.User, bool) {
	user, err := v.Verify(tokenFromRequest(r))
	if err != nil {
		return model.User{}, false
	}
	return user, true
}

func (v *Verifier) Verify(tokenRaw string) (model.User, error) {
	if tokenRaw == "" {
		return model.User{}, ErrNoCredentials
	}
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenRaw, claims, v.keyFunc)
	if err != nil {
		return model.User{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return model.User{}, errors.New("invalid session token")
	}
	return model.User{
		ID:       claims.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		ImageURL: claims.ImageURL,
	}, nil
}

func tokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// Middleware rejects API requests without a valid session.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenFromRequest(r) == "" {
				http.Error(w, `{"error":{"code":"unauthorized","message":"missing session token"}}`, http.StatusUnauthorized)
				return
			}
			user, ok := v.Authenticate(r)
			if !ok {
				http.Error(w, `{"error":{"code":"unauthorized","message":"invalid session token"}}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok && u.ID != ""
}

// MintToken signs an HS256 session token. Used for local development where no
// hosted identity provider is available.
func MintToken(secret, issuer string, user model.User, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required")
	}
	if user.ID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := Claims{
		Name:     user.Name,
		Email:    user.Email,
		ImageURL: user.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
