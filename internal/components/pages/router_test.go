package pages

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/gatehouse/internal/components/account"
	"github.com/andrasnagy-data/gatehouse/internal/shared/flash"
	"github.com/andrasnagy-data/gatehouse/internal/shared/middleware"
	"github.com/andrasnagy-data/gatehouse/internal/shared/render"
)

func newTestRouter(t *testing.T, guard func(http.Handler) http.Handler) chi.Router {
	t.Helper()
	flashes, err := flash.New([]byte("0123456789abcdef"), false)
	require.NoError(t, err)
	renderer, err := render.NewRenderer(flashes)
	require.NoError(t, err)

	r := chi.NewRouter()
	NewRouter(renderer).Mount(r, guard)
	return r
}

func withAccount(acc *account.Account) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithAccount(r.Context(), acc)))
		})
	}
}

func TestHome(t *testing.T) {
	r := newTestRouter(t, withAccount(nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
}

func TestDashboard(t *testing.T) {
	name := "Alice Liddell"

	tests := []struct {
		name     string
		acc      *account.Account
		wantCode int
		contains []string
	}{
		{
			name:     "shows username and name",
			acc:      &account.Account{ID: uuid.New(), Username: "alice", Name: &name},
			wantCode: http.StatusOK,
			contains: []string{`<strong class="username">alice</strong>`, "Name: Alice Liddell"},
		},
		{
			name:     "name is optional",
			acc:      &account.Account{ID: uuid.New(), Username: "bob"},
			wantCode: http.StatusOK,
			contains: []string{`<strong class="username">bob</strong>`},
		},
		{
			name:     "no account redirects",
			wantCode: http.StatusSeeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, withAccount(tt.acc))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			for _, s := range tt.contains {
				assert.Contains(t, rec.Body.String(), s)
			}
		})
	}
}
