package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cartshare/cartshare/internal/api/models"
	"github.com/cartshare/cartshare/internal/api/response"
	"github.com/cartshare/cartshare/internal/group"
	"github.com/cartshare/cartshare/internal/invite"
)

// GroupHandler handles shopping group endpoints.
type GroupHandler struct {
	groupService *group.Service
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService *group.Service) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// ListGroups handles GET /v1/groups - list the user's groups.
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	groups, err := h.groupService.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, groups)
}

// CreateGroup handles POST /v1/groups - create a group. The creator becomes
// its first member and the response carries the shareable invite code.
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	var input models.GroupCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.groupService.Create(r.Context(), userID, &input)
	if err != nil {
		var validationErr *group.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return
		}
		if errors.Is(err, group.ErrCodeExhausted) {
			response.ServiceUnavailable(w, r, "could not allocate an invite code, try again")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	location := fmt.Sprintf("/v1/groups/%s", created.ID)
	response.Created(w, r, location, created)
}

// JoinGroup handles POST /v1/groups/join - join a group by invite code.
// Joining a group the user already belongs to is not an error; the response
// status field says which case applied.
func (h *GroupHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	var input models.GroupJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	result, err := h.groupService.JoinByCode(r.Context(), userID, input.InviteCode)
	if err != nil {
		if errors.Is(err, invite.ErrInvalidCode) {
			response.BadRequest(w, r, "invalid invite code", []models.FieldError{
				{Field: "inviteCode", Message: "must be 8 characters"},
			})
			return
		}
		if errors.Is(err, group.ErrGroupNotFound) {
			response.NotFound(w, r, "no group with that invite code")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, result.API())
}

// GetGroup handles GET /v1/groups/{groupId} - get a group the user belongs to.
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupId")
	g, err := h.groupService.Get(r.Context(), userID, groupID)
	if err != nil {
		h.writeGroupError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, g)
}

// LeaveGroup handles POST /v1/groups/{groupId}/leave - leave a group.
func (h *GroupHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupId")
	if err := h.groupService.Leave(r.Context(), userID, groupID); err != nil {
		if errors.Is(err, group.ErrLastMember) {
			response.Conflict(w, r, "the last member cannot leave, delete the group instead")
			return
		}
		h.writeGroupError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

// DeleteGroup handles DELETE /v1/groups/{groupId} - delete a group. Any
// member may delete it.
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupId")
	if err := h.groupService.Delete(r.Context(), userID, groupID); err != nil {
		h.writeGroupError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

// writeGroupError maps the common group service errors to problem responses.
func (h *GroupHandler) writeGroupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, group.ErrGroupNotFound):
		response.NotFound(w, r, "group")
	case errors.Is(err, group.ErrNotMember):
		response.Forbidden(w, r, "you are not a member of this group")
	default:
		response.InternalError(w, r, "internal server error")
	}
}
