package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report/domain/aggregates/report"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/middleware"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/shared"
)

type ReportAPIController struct {
	app      application.Application
	reports  *services.ReportService
	basePath string
}

func NewReportAPIController(app application.Application) application.Controller {
	return &ReportAPIController{
		app:      app,
		reports:  app.Service(services.ReportService{}).(*services.ReportService),
		basePath: "/api/reports",
	}
}

func (c *ReportAPIController) Key() string {
	return c.basePath
}

func (c *ReportAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())

	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}/rows", c.Rows).Methods(http.MethodGet)

	write := router.NewRoute().Subrouter()
	write.Use(middleware.WithTransaction())
	write.HandleFunc("", c.CreateOrGet).Methods(http.MethodPost)
	write.HandleFunc("/{id}/rows", c.AddRow).Methods(http.MethodPost)
	write.HandleFunc("/{id}/rows/{rowID}", c.UpdateRow).Methods(http.MethodPut)
	write.HandleFunc("/{id}/rows/{rowID}", c.DeleteRow).Methods(http.MethodDelete)
	write.HandleFunc("/{id}/submit", c.Submit).Methods(http.MethodPost)
	write.HandleFunc("/{id}/approve", c.Approve).Methods(http.MethodPost)
	write.HandleFunc("/{id}/reject", c.Reject).Methods(http.MethodPost)
}

type reportView struct {
	ID           uuid.UUID     `json:"id"`
	Date         string        `json:"date"`
	UnitID       uuid.UUID     `json:"unit_id"`
	Status       report.Status `json:"status"`
	DecidedBy    *uuid.UUID    `json:"decided_by,omitempty"`
	DecidedAt    *time.Time    `json:"decided_at,omitempty"`
	DecisionNote *string       `json:"decision_note,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func viewOf(r report.Report) reportView {
	return reportView{
		ID:           r.ID(),
		Date:         r.Date().Format(time.DateOnly),
		UnitID:       r.UnitID(),
		Status:       r.Status(),
		DecidedBy:    r.DecidedBy(),
		DecidedAt:    r.DecidedAt(),
		DecisionNote: r.DecisionNote(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

func (c *ReportAPIController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := &report.FindParams{
		Status: report.Status(q.Get("status")),
	}
	if v := q.Get("date"); v != "" {
		date, err := time.Parse(time.DateOnly, v)
		if err != nil {
			shared.WriteError(w, r, serrors.NewValidationError("date", "expected YYYY-MM-DD"))
			return
		}
		params.Date = &date
	}
	if v := q.Get("person_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			shared.WriteError(w, r, serrors.NewValidationError("person_id", "malformed uuid"))
			return
		}
		params.PersonID = id
	}
	if v := q.Get("unit_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			shared.WriteError(w, r, serrors.NewValidationError("unit_id", "malformed uuid"))
			return
		}
		params.UnitIDs = []uuid.UUID{id}
	}
	if v := q.Get("limit"); v != "" {
		params.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		params.Offset, _ = strconv.Atoi(v)
	}

	items, total, err := c.reports.List(r.Context(), params)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	views := make([]reportView, 0, len(items))
	for _, item := range items {
		views = append(views, viewOf(item))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"items": views, "total": total})
}

func (c *ReportAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	rep, err := c.reports.GetByID(r.Context(), id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(rep))
}

func (c *ReportAPIController) CreateOrGet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date   string    `json:"date"`
		UnitID uuid.UUID `json:"unit_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, r, serrors.NewValidationError("body", "malformed JSON"))
		return
	}
	date, err := time.Parse(time.DateOnly, body.Date)
	if err != nil {
		shared.WriteError(w, r, serrors.NewValidationError("date", "expected YYYY-MM-DD"))
		return
	}
	rep, err := c.reports.CreateOrGet(r.Context(), date, body.UnitID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(rep))
}

func (c *ReportAPIController) Rows(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	rows, err := c.reports.Rows(r.Context(), id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"items": rows})
}

func (c *ReportAPIController) AddRow(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var dto report.RowDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		shared.WriteError(w, r, serrors.NewValidationError("body", "malformed JSON"))
		return
	}
	row, err := c.reports.AddRow(r.Context(), id, &dto)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, row)
}

func (c *ReportAPIController) UpdateRow(w http.ResponseWriter, r *http.Request) {
	rowID, ok := shared.PathUUID(w, r, "rowID")
	if !ok {
		return
	}
	var dto report.RowDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		shared.WriteError(w, r, serrors.NewValidationError("body", "malformed JSON"))
		return
	}
	row, err := c.reports.UpdateRow(r.Context(), rowID, &dto)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, row)
}

func (c *ReportAPIController) DeleteRow(w http.ResponseWriter, r *http.Request) {
	rowID, ok := shared.PathUUID(w, r, "rowID")
	if !ok {
		return
	}
	if err := c.reports.DeleteRow(r.Context(), rowID); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ReportAPIController) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	rep, err := c.reports.Submit(r.Context(), id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(rep))
}

func (c *ReportAPIController) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	note := decodeNote(r)
	rep, err := c.reports.Approve(r.Context(), id, note)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(rep))
}

func (c *ReportAPIController) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	note := decodeNote(r)
	rep, err := c.reports.Reject(r.Context(), id, note)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(rep))
}

func decodeNote(r *http.Request) string {
	var body struct {
		Note string `json:"note"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body.Note
}
