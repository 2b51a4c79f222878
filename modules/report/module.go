package report

import (
	auditservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report/domain/aggregates/report"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report/infrastructure/persistence"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report/presentation/controllers"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report/services"
	unitservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/configuration"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	repo := persistence.NewReportRepository()
	reportService, err := services.NewReportService(
		repo,
		repo,
		app.Service(unitservices.UnitService{}).(*unitservices.UnitService),
		app.Service(auditservices.AuditService{}).(*auditservices.AuditService),
		app.EventPublisher(),
		report.Cutoff{Hour: conf.Report.CutoffHour, Minute: conf.Report.CutoffMinute},
		services.DefaultDeciderRules,
	)
	if err != nil {
		return err
	}
	app.RegisterServices(reportService)
	app.RegisterControllers(
		controllers.NewReportAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "report"
}
