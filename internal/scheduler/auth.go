package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

type subjectKey struct{}

// SubjectFromContext returns the authenticated billing subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey{}).(string)
	return sub, ok
}

// UsageHook is the opaque counter sink: one increment per authenticated
// call, keyed by subject. Failures are logged, never surfaced.
type UsageHook interface {
	Signal(ctx context.Context, subject string) error
}

// AuthInterceptor validates the bearer token on every call, records usage,
// and applies the per-subject cooldown.
type AuthInterceptor struct {
	keys     *KeyCache
	issuer   string
	audience string
	usage    UsageHook
	limiter  *SubjectLimiter
}

func NewAuthInterceptor(keys *KeyCache, issuer, audience string, usage UsageHook, limiter *SubjectLimiter) *AuthInterceptor {
	return &AuthInterceptor{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		usage:    usage,
		limiter:  limiter,
	}
}

var _ connect.Interceptor = (*AuthInterceptor)(nil)

type claims struct {
	jwt.RegisteredClaims
}

// authenticate validates the Authorization header and returns the subject.
func (i *AuthInterceptor) authenticate(ctx context.Context, header func(string) string) (string, error) {
	bearer := header("Authorization")
	if bearer == "" {
		return "", errors.New("missing `Authorization` header")
	}

	parts := strings.Fields(bearer)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("`Authorization` header malformatted")
	}

	parsed := &claims{}
	_, err := jwt.ParseWithClaims(parts[1], parsed, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing `kid` in JWT")
		}
		return i.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("token validation failed: %w", err)
	}

	if parsed.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return parsed.Subject, nil
}

func (i *AuthInterceptor) admit(ctx context.Context, header func(string) string) (context.Context, error) {
	sub, err := i.authenticate(ctx, header)
	if err != nil {
		log.Warn().Err(err).Msg("rejected unauthenticated call")
		return ctx, connect.NewError(connect.CodeUnauthenticated, err)
	}

	if !i.limiter.Allow(sub) {
		log.Warn().Str("subject", sub).Msg("rejected call inside cooldown window")
		return ctx, connect.NewError(connect.CodeResourceExhausted,
			errors.New("schedule requests are limited to one per cooldown window"))
	}

	// best effort: metering must never fail the call
	if err := i.usage.Signal(ctx, sub); err != nil {
		log.Error().Err(err).Str("subject", sub).Msg("usage hook failed")
	}

	return context.WithValue(ctx, subjectKey{}, sub), nil
}

func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		ctx, err := i.admit(ctx, req.Header().Get)
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.admit(ctx, conn.RequestHeader().Get)
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}
