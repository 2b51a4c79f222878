package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/domain/unit"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/middleware"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/shared"
)

type UnitAPIController struct {
	app      application.Application
	units    *services.UnitService
	basePath string
}

func NewUnitAPIController(app application.Application) application.Controller {
	return &UnitAPIController{
		app:      app,
		units:    app.Service(services.UnitService{}).(*services.UnitService),
		basePath: "/api/units",
	}
}

func (c *UnitAPIController) Key() string {
	return c.basePath
}

func (c *UnitAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/tree", c.Tree).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
}

func (c *UnitAPIController) List(w http.ResponseWriter, r *http.Request) {
	units, err := c.units.GetAll(r.Context())
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"items": units})
}

func (c *UnitAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathUUID(w, r, "id")
	if !ok {
		return
	}
	u, err := c.units.GetByID(r.Context(), id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, u)
}

type treeNode struct {
	Unit     unit.Unit   `json:"unit"`
	Children []*treeNode `json:"children"`
}

func (c *UnitAPIController) Tree(w http.ResponseWriter, r *http.Request) {
	units, err := c.units.GetAll(r.Context())
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}

	nodes := make(map[uuid.UUID]*treeNode, len(units))
	for _, u := range units {
		nodes[u.ID] = &treeNode{Unit: u, Children: []*treeNode{}}
	}
	var roots []*treeNode
	for _, u := range units {
		node := nodes[u.ID]
		if u.ParentID != nil {
			if parent, ok := nodes[*u.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"roots": roots})
}
