package audit

import (
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/infrastructure/persistence"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/presentation/controllers"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewAuditService(persistence.NewAuditRepository()),
	)
	app.RegisterControllers(
		controllers.NewAuditAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "audit"
}
