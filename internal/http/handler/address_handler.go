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

type AddressHandler struct {
	addresses service.AddressService
}

func NewAddressHandler(addresses service.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var req service.AddressCreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	address, err := h.addresses.CreateAddress(r.Context(), user.ID, req)
	if err != nil {
		writeAddressError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "address.create",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "address",
		TargetID:    address.ID.String(),
		Action:      "create",
		Outcome:     "success",
		Reason:      "address_created",
	}, "is_default", address.IsDefault)
	response.JSON(w, r, http.StatusCreated, address)
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	if rawType := r.URL.Query().Get("type"); rawType != "" {
		addresses, err := h.addresses.ListAddressesByType(r.Context(), user.ID, rawType, activeOnly)
		if err != nil {
			writeAddressError(w, r, err)
			return
		}
		response.JSON(w, r, http.StatusOK, addresses)
		return
	}

	addresses, err := h.addresses.ListAddresses(r.Context(), user.ID, activeOnly)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list addresses", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, addresses)
}

func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	addressID, ok := uuidParam(w, r, "address_id")
	if !ok {
		return
	}

	address, err := h.addresses.GetAddress(r.Context(), user.ID, addressID)
	if err != nil {
		writeAddressError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, address)
}

func (h *AddressHandler) GetDefault(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	address, err := h.addresses.GetDefaultAddress(r.Context(), user.ID)
	if err != nil {
		writeAddressError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, address)
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	addressID, ok := uuidParam(w, r, "address_id")
	if !ok {
		return
	}

	var upd service.AddressUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	address, err := h.addresses.UpdateAddress(r.Context(), user.ID, addressID, upd)
	if err != nil {
		writeAddressError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "address.update",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "address",
		TargetID:    addressID.String(),
		Action:      "update",
		Outcome:     "success",
		Reason:      "address_updated",
	}, "is_default", address.IsDefault)
	response.JSON(w, r, http.StatusOK, address)
}

func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	addressID, ok := uuidParam(w, r, "address_id")
	if !ok {
		return
	}

	address, err := h.addresses.SetDefaultAddress(r.Context(), user.ID, addressID)
	if err != nil {
		writeAddressError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "address.set_default",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "address",
		TargetID:    addressID.String(),
		Action:      "set_default",
		Outcome:     "success",
		Reason:      "default_changed",
	})
	response.JSON(w, r, http.StatusOK, address)
}

func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	addressID, ok := uuidParam(w, r, "address_id")
	if !ok {
		return
	}
	hard := r.URL.Query().Get("hard") == "true"

	if err := h.addresses.DeleteAddress(r.Context(), user.ID, addressID, hard); err != nil {
		writeAddressError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "address.delete",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "address",
		TargetID:    addressID.String(),
		Action:      "delete",
		Outcome:     "success",
		Reason:      "address_removed",
	}, "hard", hard)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func writeAddressError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrAddressNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "address not found", nil)
	case errors.Is(err, service.ErrAddressValidation):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
