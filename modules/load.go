package modules

import (
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/request"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
)

// BuiltInModules is ordered by dependency: unit and audit provide the
// services the workflow modules look up at registration time.
var BuiltInModules = []application.Module{
	core.NewModule(),
	unit.NewModule(),
	audit.NewModule(),
	person.NewModule(),
	report.NewModule(),
	request.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range BuiltInModules {
		if err := app.RegisterModule(module); err != nil {
			return err
		}
	}
	for _, module := range externalModules {
		if err := app.RegisterModule(module); err != nil {
			return err
		}
	}
	return nil
}
