package apiserver

import (
	"net/http"
	"strconv"

	"schedule-go/internal/models"
	"schedule-go/internal/services"
	"schedule-go/internal/validation"
)

// FriendshipHandler serves /api/friendship/friends/.
type FriendshipHandler struct {
	friendshipService services.FriendshipService
}

// NewFriendshipHandler creates a new FriendshipHandler.
func NewFriendshipHandler(fs services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendshipService: fs}
}

func views(links []models.UserFriends) []models.UserFriendsView {
	out := make([]models.UserFriendsView, 0, len(links))
	for i := range links {
		out = append(out, links[i].View())
	}
	return out
}

// List handles GET /api/friendship/friends/?approved=true|false
func (h *FriendshipHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var approved *bool
	if raw := r.URL.Query().Get("approved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeValidationError(w, validation.NewError("approved", "approved must be true or false"))
			return
		}
		approved = &v
	}

	links, err := h.friendshipService.List(r.Context(), caller, approved)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, views(links))
}

// Create handles POST /api/friendship/friends/
func (h *FriendshipHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req services.FriendLinkInput
	if !decodeJSON(w, r, &req) {
		return
	}
	link, err := h.friendshipService.Create(r.Context(), caller, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, link.View())
}

// Get handles GET /api/friendship/friends/{id}/
func (h *FriendshipHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	link, err := h.friendshipService.Get(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, link.View())
}

// Update handles PATCH /api/friendship/friends/{id}/ with {"is_approved": bool}.
func (h *FriendshipHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req services.FriendLinkUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	link, err := h.friendshipService.SetApproval(r.Context(), caller, id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, link.View())
}

// Delete handles DELETE /api/friendship/friends/{id}/
func (h *FriendshipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.friendshipService.Delete(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
