package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/domain/aggregates/person"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/middleware"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/shared"
)

type PersonAPIController struct {
	app      application.Application
	persons  *services.PersonService
	basePath string
}

func NewPersonAPIController(app application.Application) application.Controller {
	return &PersonAPIController{
		app:      app,
		persons:  app.Service(services.PersonService{}).(*services.PersonService),
		basePath: "/api/persons",
	}
}

func (c *PersonAPIController) Key() string {
	return c.basePath
}

func (c *PersonAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())

	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/pending", c.ListPending).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)

	write := router.NewRoute().Subrouter()
	write.Use(middleware.WithTransaction())
	write.HandleFunc("", c.Create).Methods(http.MethodPost)
	write.HandleFunc("/{id}", c.Update).Methods(http.MethodPatch)
	write.HandleFunc("/{id}/approve", c.Approve).Methods(http.MethodPost)
	write.HandleFunc("/{id}/reject", c.Reject).Methods(http.MethodPost)
	write.HandleFunc("/{id}/resubmit", c.Resubmit).Methods(http.MethodPost)
}

type personView struct {
	ID              uuid.UUID     `json:"id"`
	ServiceNumber   string        `json:"service_number"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	Grade           string        `json:"grade"`
	UnitID          uuid.UUID     `json:"unit_id"`
	Status          person.Status `json:"status"`
	RejectionReason *string       `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func viewOf(p person.Person) personView {
	return personView{
		ID:              p.ID(),
		ServiceNumber:   p.ServiceNumber(),
		FirstName:       p.FirstName(),
		LastName:        p.LastName(),
		Grade:           p.Grade(),
		UnitID:          p.UnitID(),
		Status:          p.Status(),
		RejectionReason: p.RejectionReason(),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

func viewsOf(items []person.Person) []personView {
	out := make([]personView, 0, len(items))
	for _, p := range items {
		out = append(out, viewOf(p))
	}
	return out
}

func (c *PersonAPIController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := &person.FindParams{
		Q:      q.Get("q"),
		Status: person.Status(q.Get("status")),
	}
	if v := q.Get("limit"); v != "" {
		params.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		params.Offset, _ = strconv.Atoi(v)
	}

	items, total, err := c.persons.Search(r.Context(), params)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"items": viewsOf(items),
		"total": total,
	})
}

func (c *PersonAPIController) ListPending(w http.ResponseWriter, r *http.Request) {
	items, err := c.persons.ListPending(r.Context())
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"items": viewsOf(items)})
}

func (c *PersonAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := c.persons.GetByID(r.Context(), id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(p))
}

// Create files a new registration; the record lands in PENDING.
func (c *PersonAPIController) Create(w http.ResponseWriter, r *http.Request) {
	var dto person.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		shared.WriteError(w, r, serrors.NewValidationError("body", "malformed JSON"))
		return
	}
	p, err := c.persons.Register(r.Context(), &dto)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, viewOf(p))
}

func (c *PersonAPIController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var patch person.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		shared.WriteError(w, r, serrors.NewValidationError("body", "malformed JSON"))
		return
	}
	p, err := c.persons.Update(r.Context(), id, patch)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(p))
}

func (c *PersonAPIController) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := c.persons.Approve(r.Context(), id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(p))
}

func (c *PersonAPIController) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, r, serrors.NewValidationError("body", "malformed JSON"))
		return
	}
	p, err := c.persons.Reject(r.Context(), id, body.Reason)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(p))
}

func (c *PersonAPIController) Resubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var patch person.Patch
	if r.Body != nil {
		// An empty body resubmits without edits.
		_ = json.NewDecoder(r.Body).Decode(&patch)
	}
	p, err := c.persons.UpdateAndResubmit(r.Context(), id, patch)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(p))
}
