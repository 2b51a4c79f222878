package person

import (
	auditservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/infrastructure/persistence"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/presentation/controllers"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/services"
	unitservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	repo := persistence.NewPersonRepository()
	personService, err := services.NewPersonService(
		repo,
		repo,
		app.Service(unitservices.UnitService{}).(*unitservices.UnitService),
		app.Service(auditservices.AuditService{}).(*auditservices.AuditService),
		app.EventPublisher(),
	)
	if err != nil {
		return err
	}
	app.RegisterServices(personService)
	app.RegisterControllers(
		controllers.NewPersonAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "person"
}
