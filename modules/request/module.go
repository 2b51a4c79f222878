package request

import (
	auditservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/services"
	corepersistence "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/infrastructure/persistence"
	personpersistence "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/infrastructure/persistence"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/request/infrastructure/persistence"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/request/presentation/controllers"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/request/services"
	unitservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	repo := persistence.NewRequestRepository()
	personRepo := personpersistence.NewPersonRepository()
	requestService, err := services.NewRequestService(
		repo,
		repo,
		personRepo,
		personRepo,
		corepersistence.NewPrincipalRepository(),
		app.Service(unitservices.UnitService{}).(*unitservices.UnitService),
		app.Service(auditservices.AuditService{}).(*auditservices.AuditService),
		app.EventPublisher(),
	)
	if err != nil {
		return err
	}
	app.RegisterServices(requestService)
	app.RegisterControllers(
		controllers.NewRequestAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "request"
}
