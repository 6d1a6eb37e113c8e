package pages

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/gatehouse/internal/shared/middleware"
	"github.com/andrasnagy-data/gatehouse/internal/shared/render"
)

type (
	Router struct {
		render *render.Renderer
	}

	DashboardData struct {
		Username string
		Name     string
	}
)

func NewRouter(renderer *render.Renderer) *Router {
	return &Router{render: renderer}
}

// Mount registers the landing page and the guarded dashboard.
func (rt *Router) Mount(router chi.Router, guard func(http.Handler) http.Handler) {
	router.Get("/", rt.Home)
	router.With(guard).Get("/dashboard", rt.Dashboard)
}

func (rt *Router) Home(w http.ResponseWriter, req *http.Request) {
	rt.render.Page(w, req, http.StatusOK, render.PageIndex, nil)
}

func (rt *Router) Dashboard(w http.ResponseWriter, req *http.Request) {
	acc := middleware.AccountFrom(req.Context())
	if acc == nil {
		// Only reachable when mounted without the guard.
		hlog.FromRequest(req).Error().Msg("Dashboard reached without an account")
		http.Redirect(w, req, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	rt.render.Page(w, req, http.StatusOK, render.PageDashboard, DashboardData{
		Username: acc.Username,
		Name:     acc.DisplayName(),
	})
}
