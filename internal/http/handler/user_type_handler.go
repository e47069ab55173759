package handler

import (
	"errors"
	"net/http"

	"github.com/gks77/user-account-service/internal/http/response"
	"github.com/gks77/user-account-service/internal/repository"
	"github.com/gks77/user-account-service/internal/service"
)

type UserTypeHandler struct {
	userTypes service.UserTypeService
}

func NewUserTypeHandler(userTypes service.UserTypeService) *UserTypeHandler {
	return &UserTypeHandler{userTypes: userTypes}
}

func (h *UserTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	types, err := h.userTypes.ListUserTypes(r.Context(), activeOnly)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list user types", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, types)
}

func (h *UserTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "user_type_id")
	if !ok {
		return
	}
	userType, err := h.userTypes.GetUserType(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserTypeNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user type not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, userType)
}
