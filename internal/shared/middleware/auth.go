package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/gatehouse/internal/components/account"
	"github.com/andrasnagy-data/gatehouse/internal/shared/flash"
	"github.com/andrasnagy-data/gatehouse/internal/shared/session"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const accountKey contextKey = "account"

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

var loginRequired = flash.Message{Category: flash.Info, Text: "Please log in to access this page."}

type (
	sessionResolver interface {
		Resolve(r *http.Request) (*account.Account, error)
	}

	flashAdder interface {
		Add(w http.ResponseWriter, r *http.Request, msgs ...flash.Message) error
	}
)

// AccountFrom returns the account stored by the auth middleware, or nil.
func AccountFrom(ctx context.Context) *account.Account {
	acc, _ := ctx.Value(accountKey).(*account.Account)
	return acc
}

// WithAccount is used by the auth middleware and by tests of guarded handlers.
func WithAccount(ctx context.Context, acc *account.Account) context.Context {
	return context.WithValue(ctx, accountKey, acc)
}

// NewAuthMiddleware protects routes that need an authenticated account.
// Without a valid session the request is redirected to the login page and
// the wrapped handler never runs.
func NewAuthMiddleware(sessions sessionResolver, flashes flashAdder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc, err := sessions.Resolve(r)
			if errors.Is(err, session.ErrNoSession) {
				if err := flashes.Add(w, r, loginRequired); err != nil {
					hlog.FromRequest(r).Warn().Err(err).Msg("Failed to store flash message")
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Msg("Failed to resolve session")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acc)))
		})
	}
}
