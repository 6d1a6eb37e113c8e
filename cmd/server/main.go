// Gatehouse
// Account registration, login and a session-gated dashboard.
package main

import (
	"go.uber.org/fx"

	"github.com/andrasnagy-data/gatehouse/internal/components/account"
	"github.com/andrasnagy-data/gatehouse/internal/components/auth"
	"github.com/andrasnagy-data/gatehouse/internal/components/pages"
	"github.com/andrasnagy-data/gatehouse/internal/server"
	"github.com/andrasnagy-data/gatehouse/internal/shared/config"
	"github.com/andrasnagy-data/gatehouse/internal/shared/database"
	"github.com/andrasnagy-data/gatehouse/internal/shared/flash"
	"github.com/andrasnagy-data/gatehouse/internal/shared/logging"
	"github.com/andrasnagy-data/gatehouse/internal/shared/password"
	"github.com/andrasnagy-data/gatehouse/internal/shared/render"
	"github.com/andrasnagy-data/gatehouse/internal/shared/session"
)

func options() fx.Option {
	return fx.Options(
		fx.Provide(
			config.NewConfig,
			logging.NewLogger,
			database.NewPgxPool,
			server.NewServer,
			server.NewHealthSrvc,
			server.NewHealthHandler,
			fx.Annotate(
				account.NewPgRepo,
				fx.As(new(auth.AccountStore)),
				fx.As(new(session.Resolver)),
			),
			fx.Annotate(password.NewBcrypt, fx.As(new(password.Hasher))),
			fx.Annotate(
				session.NewManager,
				fx.As(fx.Self()),
				fx.As(new(auth.SessionIssuer)),
			),
			flash.NewStore,
			render.NewRenderer,
			auth.NewService,
			auth.NewRouter,
			pages.NewRouter,
		),
		fx.Invoke((*server.Server).Start),
	)
}

func main() {
	fx.New(options()).Run()
}
