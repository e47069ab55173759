package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/http/middleware"
	"github.com/gks77/user-account-service/internal/http/response"
	"github.com/gks77/user-account-service/internal/observability"
	"github.com/gks77/user-account-service/internal/repository"
	"github.com/gks77/user-account-service/internal/service"
)

type UserHandler struct {
	users    service.UserService
	sessions service.SessionService
	storage  service.StorageService
	profiles service.ProfileService
}

func NewUserHandler(users service.UserService, sessions service.SessionService, storage service.StorageService, profiles service.ProfileService) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, storage: storage, profiles: profiles}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var upd service.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	// Self-service cannot flip the active flag; that path revokes sessions
	// and belongs to the admin surface.
	upd.IsActive = nil

	updated, err := h.users.UpdateUser(r.Context(), user.ID, upd)
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "user.update",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "user",
		TargetID:    user.ID.String(),
		Action:      "update",
		Outcome:     "success",
		Reason:      "self_service",
	})
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	if err := h.users.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "current password is incorrect", nil)
		case errors.Is(err, service.ErrUserValidation):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to change password", nil)
		}
		return
	}

	// Other devices keep stale credentials alive; cut them loose.
	currentSessionID := middleware.SessionIDFromContext(r.Context())
	revoked, err := h.sessions.RevokeOtherSessions(r.Context(), user.ID, currentSessionID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "password changed but session revocation failed", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "user.change_password",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "user",
		TargetID:    user.ID.String(),
		Action:      "change_password",
		Outcome:     "success",
		Reason:      "credentials_rotated",
	}, "revoked_count", revoked)
	response.JSON(w, r, http.StatusOK, map[string]any{"revoked_count": revoked})
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	if err := h.users.DeleteUser(r.Context(), user.ID); err != nil {
		writeUserError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "user.delete",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "user",
		TargetID:    user.ID.String(),
		Action:      "delete",
		Outcome:     "success",
		Reason:      "self_service",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "failed to parse multipart form", nil)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "avatar file is required", nil)
		return
	}
	defer func() { _ = file.Close() }()

	objectKey, err := h.storage.UploadAvatar(r.Context(), user.ID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, service.ErrFileTooBig) {
			response.Error(w, r, http.StatusBadRequest, "FILE_TOO_LARGE", "file size exceeds 5MB limit", nil)
			return
		}
		if errors.Is(err, service.ErrInvalidFileType) {
			response.Error(w, r, http.StatusBadRequest, "INVALID_FILE_TYPE", "only JPEG and PNG images are allowed", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to upload avatar", nil)
		return
	}

	avatarURL, err := h.storage.GenerateAvatarURL(r.Context(), objectKey)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to generate avatar URL", nil)
		return
	}
	if _, err := h.profiles.UpdateProfile(r.Context(), user.ID, service.ProfileUpdate{AvatarURL: &avatarURL}); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to record avatar", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "avatar.upload",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "avatar",
		TargetID:    objectKey,
		Action:      "upload",
		Outcome:     "success",
		Reason:      "avatar_uploaded",
	}, "object_key", objectKey, "file_size", header.Size)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"object_key": objectKey,
		"avatar_url": avatarURL,
		"file_size":  header.Size,
	})
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var req struct {
		ObjectKey string `json:"object_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if req.ObjectKey == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "object_key is required", nil)
		return
	}

	if err := h.storage.DeleteAvatar(r.Context(), user.ID, req.ObjectKey); err != nil {
		if errors.Is(err, service.ErrUnauthorizedAccess) {
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "object does not belong to you", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to delete avatar", nil)
		return
	}
	empty := ""
	if _, err := h.profiles.UpdateProfile(r.Context(), user.ID, service.ProfileUpdate{AvatarURL: &empty}); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to clear avatar", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "avatar.delete",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "avatar",
		TargetID:    req.ObjectKey,
		Action:      "delete",
		Outcome:     "success",
		Reason:      "avatar_deleted",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"object_key": req.ObjectKey, "deleted": true})
}

// Admin surface.

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := repository.UserListQuery{
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		q.PageSize = size
	}

	result, err := h.users.ListUsers(r.Context(), q)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list users", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"items":       result.Items,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total":       result.Total,
		"total_pages": result.TotalPages,
	})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "user_id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "user_id")
	if !ok {
		return
	}
	var upd service.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), id, upd)
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	actor, _ := middleware.UserFromContext(r.Context())
	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "user.update",
		ActorUserID: actorID(actor),
		TargetType:  "user",
		TargetID:    id.String(),
		Action:      "update",
		Outcome:     "success",
		Reason:      "admin",
	})
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "user_id")
	if !ok {
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		writeUserError(w, r, err)
		return
	}

	actor, _ := middleware.UserFromContext(r.Context())
	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "user.delete",
		ActorUserID: actorID(actor),
		TargetType:  "user",
		TargetID:    id.String(),
		Action:      "delete",
		Outcome:     "success",
		Reason:      "admin",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
	case errors.Is(err, repository.ErrDuplicateResource):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "username or email already taken", nil)
	case errors.Is(err, service.ErrUserValidation):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

func actorID(actor *domain.User) string {
	if actor == nil {
		return "anonymous"
	}
	return actor.ID.String()
}
