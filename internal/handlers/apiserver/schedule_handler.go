package apiserver

import (
	"net/http"

	"schedule-go/internal/services"
)

// ScheduleHandler serves the caller's schedule and lessons.
type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

// NewScheduleHandler 创建一个新的 ScheduleHandler 实例。
func NewScheduleHandler(scheduleService services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// List handles GET /api/schedule/schedules/.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	schedules, err := h.scheduleService.List(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, schedules)
}

// Create handles POST /api/schedule/schedules/ with nested lessons.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req services.ScheduleInput
	if !decodeJSON(w, r, &req) {
		return
	}
	schedule, err := h.scheduleService.Create(r.Context(), caller, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, schedule)
}

// Get handles GET /api/schedule/schedules/{id}/.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	schedule, err := h.scheduleService.Get(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, schedule)
}

// Replace handles PUT; name and lessons are both required.
func (h *ScheduleHandler) Replace(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req services.ScheduleInput
	if !decodeJSON(w, r, &req) {
		return
	}
	schedule, err := h.scheduleService.Replace(r.Context(), caller, id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, schedule)
}

// Update handles PATCH; omitted fields keep their value.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req services.ScheduleUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	schedule, err := h.scheduleService.Update(r.Context(), caller, id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, schedule)
}

// Delete handles DELETE /api/schedule/schedules/{id}/.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.scheduleService.Delete(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScheduleHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	lessons, err := h.scheduleService.ListLessons(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, lessons)
}

func (h *ScheduleHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	lesson, err := h.scheduleService.GetLesson(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, lesson)
}
