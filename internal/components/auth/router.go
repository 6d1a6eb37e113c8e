package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/gatehouse/internal/components/account"
	"github.com/andrasnagy-data/gatehouse/internal/shared/flash"
	"github.com/andrasnagy-data/gatehouse/internal/shared/render"
)

var (
	msgRegistered    = flash.Message{Category: flash.Success, Text: "Registration successful, please log in."}
	msgUsernameTaken = flash.Message{Category: flash.Danger, Text: "Username already exists."}
	msgMissingFields = flash.Message{Category: flash.Danger, Text: "Username and password are required."}
	msgLoggedIn      = flash.Message{Category: flash.Success, Text: "Login successful."}
	msgInvalidCreds  = flash.Message{Category: flash.Danger, Text: "Invalid credentials."}
	msgLoggedOut     = flash.Message{Category: flash.Info, Text: "You have been logged out."}
)

type (
	// SessionIssuer starts and ends sessions.
	SessionIssuer interface {
		Establish(w http.ResponseWriter, r *http.Request, subject account.Subject) error
		Terminate(w http.ResponseWriter, r *http.Request)
	}

	Router struct {
		service  *Service
		sessions SessionIssuer
		render   *render.Renderer
	}
)

func NewRouter(service *Service, sessions SessionIssuer, renderer *render.Renderer) *Router {
	return &Router{service: service, sessions: sessions, render: renderer}
}

// Mount registers the auth routes on router; guard protects logout.
func (rt *Router) Mount(router chi.Router, guard func(http.Handler) http.Handler) {
	router.Get("/register", rt.RegisterPage)
	router.Post("/register", rt.HandleRegister)
	router.Get("/login", rt.LoginPage)
	router.Post("/login", rt.HandleLogin)
	router.With(guard).Get("/logout", rt.HandleLogout)
}

func (rt *Router) RegisterPage(w http.ResponseWriter, req *http.Request) {
	rt.render.Page(w, req, http.StatusOK, render.PageRegister, nil)
}

func (rt *Router) HandleRegister(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	if err := req.ParseForm(); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse form")
		rt.render.Page(w, req, http.StatusBadRequest, render.PageRegister, nil, msgMissingFields)
		return
	}

	in := RegisterIn{
		Name:     req.PostFormValue("name"),
		Email:    req.PostFormValue("email"),
		Username: req.PostFormValue("username"),
		Password: req.PostFormValue("password"),
	}

	res, err := rt.service.Register(ctx, in)
	switch {
	case errors.Is(err, ErrMissingField):
		rt.render.Page(w, req, http.StatusBadRequest, render.PageRegister, nil, msgMissingFields)
		return
	case err != nil:
		logger.Error().Err(err).Str("username", in.Username).Msg("Registration failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch res.Outcome {
	case account.Created:
		logger.Info().Str("username", in.Username).Str("account_id", res.Account.ID.String()).Msg("Account registered")
		rt.render.Redirect(w, req, "/login", msgRegistered)
	case account.DuplicateUsername:
		logger.Warn().Str("username", in.Username).Msg("Registration rejected: username taken")
		rt.render.Page(w, req, http.StatusConflict, render.PageRegister, nil, msgUsernameTaken)
	default:
		logger.Error().Str("outcome", res.Outcome.String()).Msg("Unexpected registration outcome")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (rt *Router) LoginPage(w http.ResponseWriter, req *http.Request) {
	rt.render.Page(w, req, http.StatusOK, render.PageLogin, nil)
}

func (rt *Router) HandleLogin(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	if err := req.ParseForm(); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse form")
		rt.render.Page(w, req, http.StatusUnauthorized, render.PageLogin, nil, msgInvalidCreds)
		return
	}

	in := LoginIn{
		Username: req.PostFormValue("username"),
		Password: req.PostFormValue("password"),
	}

	logger.Debug().Str("username", in.Username).Msg("Login attempt")

	acc, err := rt.service.Login(ctx, in)
	if errors.Is(err, ErrInvalidCredentials) {
		logger.Warn().Str("username", in.Username).Msg("Login failed: invalid credentials")
		rt.render.Page(w, req, http.StatusUnauthorized, render.PageLogin, nil, msgInvalidCreds)
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("username", in.Username).Msg("Login failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := rt.sessions.Establish(w, req, acc); err != nil {
		logger.Error().Err(err).Str("username", in.Username).Msg("Login failed: could not set cookie")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Debug().Str("username", in.Username).Str("account_id", acc.ID.String()).Msg("Login successful")
	rt.render.Redirect(w, req, "/dashboard", msgLoggedIn)
}

func (rt *Router) HandleLogout(w http.ResponseWriter, req *http.Request) {
	rt.sessions.Terminate(w, req)
	rt.render.Redirect(w, req, "/login", msgLoggedOut)
}
