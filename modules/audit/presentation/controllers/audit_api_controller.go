package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/domain/audit"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/middleware"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/shared"
)

type AuditAPIController struct {
	app      application.Application
	audits   *services.AuditService
	basePath string
}

func NewAuditAPIController(app application.Application) application.Controller {
	return &AuditAPIController{
		app:      app,
		audits:   app.Service(services.AuditService{}).(*services.AuditService),
		basePath: "/api/audit",
	}
}

func (c *AuditAPIController) Key() string {
	return c.basePath
}

func (c *AuditAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())
	router.HandleFunc("/entries", c.List).Methods(http.MethodGet)
}

func (c *AuditAPIController) List(w http.ResponseWriter, r *http.Request) {
	params := audit.FindParams{
		EntityType: strings.TrimSpace(r.URL.Query().Get("entity_type")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("entity_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			params.EntityID = id
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			params.Limit = parsed
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			params.Offset = parsed
		}
	}

	entries, err := c.audits.List(r.Context(), params)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"items": entries})
}
