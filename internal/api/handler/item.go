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
	"github.com/cartshare/cartshare/internal/item"
)

// ItemHandler handles shopping list item endpoints.
type ItemHandler struct {
	itemService *item.Service
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(itemService *item.Service) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// ListItems handles GET /v1/groups/{groupId}/items - list a group's items
// in display order.
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupId")
	items, err := h.itemService.List(r.Context(), userID, groupID)
	if err != nil {
		h.writeItemError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, items)
}

// CreateItem handles POST /v1/groups/{groupId}/items - add an item to the
// list. New items go to the end of the display order.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupId")
	var input models.ItemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.itemService.Create(r.Context(), userID, groupID, &input)
	if err != nil {
		h.writeItemError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/groups/%s/items/%s", groupID, created.ID)
	response.Created(w, r, location, created)
}

// ToggleItem handles POST /v1/groups/{groupId}/items/{itemId}/toggle - mark
// an item purchased or unpurchased. Marking purchased stamps the buyer and
// time; marking unpurchased clears both.
func (h *ItemHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupId")
	itemID := chi.URLParam(r, "itemId")

	var input models.ItemToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.itemService.Toggle(r.Context(), userID, groupID, itemID, input.Purchased)
	if err != nil {
		h.writeItemError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteItem handles DELETE /v1/groups/{groupId}/items/{itemId}.
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupId")
	itemID := chi.URLParam(r, "itemId")
	if err := h.itemService.Delete(r.Context(), userID, groupID, itemID); err != nil {
		h.writeItemError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

// ReorderItems handles PUT /v1/groups/{groupId}/items/order - persist a new
// display order for the whole list.
func (h *ItemHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupId")
	var input models.ItemReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if err := h.itemService.Reorder(r.Context(), userID, groupID, input.ItemIDs); err != nil {
		h.writeItemError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

// writeItemError maps item service errors to problem responses.
func (h *ItemHandler) writeItemError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *item.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "validation failed", validationErr.Errors)
	case errors.Is(err, group.ErrGroupNotFound):
		response.NotFound(w, r, "group")
	case errors.Is(err, group.ErrNotMember):
		response.Forbidden(w, r, "you are not a member of this group")
	case errors.Is(err, item.ErrItemNotFound):
		response.NotFound(w, r, "item")
	default:
		response.InternalError(w, r, "internal server error")
	}
}
