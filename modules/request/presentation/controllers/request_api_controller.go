package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/request/domain/aggregates/changerequest"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/request/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/middleware"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/shared"
)

type RequestAPIController struct {
	app      application.Application
	requests *services.RequestService
	basePath string
}

func NewRequestAPIController(app application.Application) application.Controller {
	return &RequestAPIController{
		app:      app,
		requests: app.Service(services.RequestService{}).(*services.RequestService),
		basePath: "/api/requests",
	}
}

func (c *RequestAPIController) Key() string {
	return c.basePath
}

func (c *RequestAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())

	router.HandleFunc("/incoming", c.ListIncoming).Methods(http.MethodGet)
	router.HandleFunc("/mine", c.ListMine).Methods(http.MethodGet)
	router.HandleFunc("/archive", c.ListArchive).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)

	write := router.NewRoute().Subrouter()
	write.Use(middleware.WithTransaction())
	write.HandleFunc("", c.Create).Methods(http.MethodPost)
	write.HandleFunc("/{id}/approve", c.Approve).Methods(http.MethodPost)
	write.HandleFunc("/{id}/reject", c.Reject).Methods(http.MethodPost)
	write.HandleFunc("/{id}/cancel", c.Cancel).Methods(http.MethodPost)
}

type requestView struct {
	ID           uuid.UUID            `json:"id"`
	Type         changerequest.Type   `json:"type"`
	PersonID     uuid.UUID            `json:"person_id"`
	UnitID       uuid.UUID            `json:"unit_id"`
	Payload      json.RawMessage      `json:"payload,omitempty"`
	Status       changerequest.Status `json:"status"`
	CreatedBy    uuid.UUID            `json:"created_by"`
	DecidedBy    *uuid.UUID           `json:"decided_by,omitempty"`
	DecidedAt    *time.Time           `json:"decided_at,omitempty"`
	DecisionNote *string              `json:"decision_note,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func viewOf(r changerequest.ChangeRequest) requestView {
	return requestView{
		ID:           r.ID(),
		Type:         r.Type(),
		PersonID:     r.PersonID(),
		UnitID:       r.UnitID(),
		Payload:      r.Payload(),
		Status:       r.Status(),
		CreatedBy:    r.CreatedBy(),
		DecidedBy:    r.DecidedBy(),
		DecidedAt:    r.DecidedAt(),
		DecisionNote: r.DecisionNote(),
		CreatedAt:    r.CreatedAt(),
	}
}

func viewsOf(items []changerequest.ChangeRequest) []requestView {
	out := make([]requestView, 0, len(items))
	for _, item := range items {
		out = append(out, viewOf(item))
	}
	return out
}

func (c *RequestAPIController) list(w http.ResponseWriter, r *http.Request, fn func() ([]changerequest.ChangeRequest, error)) {
	items, err := fn()
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"items": viewsOf(items)})
}

func (c *RequestAPIController) ListIncoming(w http.ResponseWriter, r *http.Request) {
	c.list(w, r, func() ([]changerequest.ChangeRequest, error) { return c.requests.ListIncoming(r.Context()) })
}

func (c *RequestAPIController) ListMine(w http.ResponseWriter, r *http.Request) {
	c.list(w, r, func() ([]changerequest.ChangeRequest, error) { return c.requests.ListMine(r.Context()) })
}

func (c *RequestAPIController) ListArchive(w http.ResponseWriter, r *http.Request) {
	c.list(w, r, func() ([]changerequest.ChangeRequest, error) { return c.requests.ListArchive(r.Context()) })
}

func (c *RequestAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	req, err := c.requests.GetByID(r.Context(), id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(req))
}

func (c *RequestAPIController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type     changerequest.Type `json:"type"`
		PersonID uuid.UUID          `json:"person_id"`
		Payload  json.RawMessage    `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, r, serrors.NewValidationError("body", "malformed JSON"))
		return
	}
	req, err := c.requests.Create(r.Context(), body.Type, body.PersonID, body.Payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, viewOf(req))
}

func (c *RequestAPIController) Approve(w http.ResponseWriter, r *http.Request) {
	c.decide(w, r, c.requests.Approve)
}

func (c *RequestAPIController) Reject(w http.ResponseWriter, r *http.Request) {
	c.decide(w, r, c.requests.Reject)
}

func (c *RequestAPIController) decide(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID, note string) (changerequest.ChangeRequest, error),
) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Note string `json:"note"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	req, err := fn(r.Context(), id, body.Note)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(req))
}

func (c *RequestAPIController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.decide(w, r, c.requests.Cancel)
}
