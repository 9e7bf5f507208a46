package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cartshare/cartshare/internal/api/models"
	"github.com/cartshare/cartshare/internal/api/response"
	"github.com/cartshare/cartshare/internal/device"
)

// DeviceHandler handles device registration endpoints.
type DeviceHandler struct {
	deviceService *device.Service
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(deviceService *device.Service) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

// ListDevices handles GET /v1/me/devices - list registered devices.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	devices, err := h.deviceService.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, devices)
}

// RegisterDevice handles POST /v1/me/devices - register a push token for a
// device. Registering an existing device adds the token to its token set.
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	var input models.DeviceRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	d, created, err := h.deviceService.Register(r.Context(), userID, &input)
	if err != nil {
		var validationErr *device.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	if created {
		location := fmt.Sprintf("/v1/me/devices/%s", d.ID)
		response.Created(w, r, location, d)
		return
	}
	response.JSON(w, r, http.StatusOK, d)
}

// UnregisterDevice handles DELETE /v1/me/devices/{deviceId} - unregister device.
func (h *DeviceHandler) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	deviceID := chi.URLParam(r, "deviceId")
	if deviceID == "" {
		response.BadRequest(w, r, "deviceId is required", nil)
		return
	}

	if err := h.deviceService.Unregister(r.Context(), userID, deviceID); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			response.NotFound(w, r, "device")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.NoContent(w, r)
}
