package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cartshare/cartshare/internal/api/models"
	"github.com/cartshare/cartshare/internal/api/response"
	"github.com/cartshare/cartshare/internal/user"
)

// MeHandler handles user account endpoints.
type MeHandler struct {
	userService *user.Service
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(userService *user.Service) *MeHandler {
	return &MeHandler{userService: userService}
}

// GetMe handles GET /v1/me - get current user profile.
func (h *MeHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	me, err := h.userService.GetMe(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, r, "user")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, me)
}

// UpdateMe handles PUT /v1/me - update current user profile.
func (h *MeHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	var input models.MeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrors := validateMeInput(&input); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	me, err := h.userService.UpdateMe(r.Context(), userID, &input)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, r, "user")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, me)
}

// DeleteMe handles DELETE /v1/me - delete the account and everything tied
// to it (device registrations, group memberships).
func (h *MeHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, r, "user")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.NoContent(w, r)
}

// validateMeInput validates profile update input.
func validateMeInput(input *models.MeInput) []models.FieldError {
	var fieldErrors []models.FieldError

	if input.UserName != nil && len(*input.UserName) > user.MaxUserNameLength {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "userName",
			Message: "must be at most 40 characters",
		})
	}
	if input.DisplayName != nil && len(*input.DisplayName) > user.MaxDisplayNameLength {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "displayName",
			Message: "must be at most 80 characters",
		})
	}

	return fieldErrors
}
