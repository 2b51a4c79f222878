package core

import (
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/infrastructure/persistence"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/presentation/controllers"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/configuration"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	app.RegisterServices(
		services.NewAuthService(
			persistence.NewPrincipalRepository(),
			conf.Auth.JWTSecret,
			conf.Auth.TokenTTL,
		),
	)
	app.RegisterControllers(
		controllers.NewAuthAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "core"
}
