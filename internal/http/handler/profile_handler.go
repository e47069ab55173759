package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gks77/user-account-service/internal/http/middleware"
	"github.com/gks77/user-account-service/internal/http/response"
	"github.com/gks77/user-account-service/internal/observability"
	"github.com/gks77/user-account-service/internal/repository"
	"github.com/gks77/user-account-service/internal/service"
)

type ProfileHandler struct {
	profiles service.ProfileService
}

func NewProfileHandler(profiles service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), user.ID)
	if err != nil {
		writeProfileError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var upd service.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	profile, err := h.profiles.UpdateProfile(r.Context(), user.ID, upd)
	if err != nil {
		writeProfileError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "profile.update",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "profile",
		TargetID:    profile.ID.String(),
		Action:      "update",
		Outcome:     "success",
		Reason:      "profile_updated",
	})
	response.JSON(w, r, http.StatusOK, profile)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	if err := h.profiles.DeleteProfile(r.Context(), user.ID); err != nil {
		writeProfileError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "profile.delete",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "profile",
		TargetID:    user.ID.String(),
		Action:      "delete",
		Outcome:     "success",
		Reason:      "profile_deleted",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func writeProfileError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrProfileNotFound), errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "profile not found", nil)
	case errors.Is(err, service.ErrInvalidVisibility):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "invalid profile visibility", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
