package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/middleware"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/shared"
)

type AuthAPIController struct {
	app      application.Application
	auth     *services.AuthService
	basePath string
}

func NewAuthAPIController(app application.Application) application.Controller {
	return &AuthAPIController{
		app:      app,
		auth:     app.Service(services.AuthService{}).(*services.AuthService),
		basePath: "/api/auth",
	}
}

func (c *AuthAPIController) Key() string {
	return c.basePath
}

func (c *AuthAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/login", c.Login).Methods(http.MethodPost)

	me := router.NewRoute().Subrouter()
	me.Use(middleware.RequireUser())
	me.HandleFunc("/me", c.Me).Methods(http.MethodGet)
}

func (c *AuthAPIController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, r, serrors.NewValidationError("body", "malformed JSON"))
		return
	}
	if body.Email == "" || body.Password == "" {
		shared.WriteError(w, r, serrors.NewFieldRequiredError("email"))
		return
	}

	token, p, err := c.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"principal": map[string]any{
			"id":      p.ID(),
			"email":   p.Email(),
			"role":    p.Role(),
			"unit_id": p.UnitID(),
		},
	})
}

func (c *AuthAPIController) Me(w http.ResponseWriter, r *http.Request) {
	p, err := composables.UseUser(r.Context())
	if err != nil {
		shared.WriteError(w, r, serrors.NewForbidden("not authenticated"))
		return
	}
	var unitID *uuid.UUID
	if p.UnitID() != nil {
		unitID = p.UnitID()
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"id":      p.ID(),
		"email":   p.Email(),
		"role":    p.Role(),
		"unit_id": unitID,
	})
}
