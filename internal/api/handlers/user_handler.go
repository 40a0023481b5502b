package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/api/respond"
	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
	"github.com/markdave123-py/docflow/internal/services"
)

// UserHandler serves the admin user endpoints. Role checks happen in the router.
type UserHandler struct {
	users *services.UserService
	log   logrus.FieldLogger
}

func NewUserHandler(users *services.UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := paginationFrom(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	page, err := h.users.List(r.Context(), p)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		respond.Error(w, h.log, core.Validation("role must be one of ADMIN, EDITOR, VIEWER"))
		return
	}

	u, err := h.users.UpdateRole(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
