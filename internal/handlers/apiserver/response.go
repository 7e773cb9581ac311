package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"schedule-go/internal/middleware"
	"schedule-go/internal/models"
	"schedule-go/internal/services"
	"schedule-go/internal/validation"
)

// ErrorResponse 是 API 错误响应的通用结构体。
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse carries per-field messages keyed by JSON path.
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSONResponse 是一个辅助函数，用于发送 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// 头部已发送，只能记录
			log.Printf("无法编码 JSON 响应: %v", err)
		}
	}
}

// writeJSONError 是一个辅助函数，用于发送 JSON 格式的错误响应。
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, verr *validation.Error) {
	writeJSONResponse(w, http.StatusBadRequest, ValidationErrorResponse{Error: "invalid payload", Fields: verr.Fields})
}

// writeServiceError maps service errors onto HTTP statuses. Anything not
// recognised is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrUserInactive):
		writeJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrPermissionDenied),
		errors.Is(err, services.ErrNotFriendLinkTarget):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrFriendLinkNotFound),
		errors.Is(err, services.ErrScheduleNotFound),
		errors.Is(err, services.ErrLessonNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrUserAlreadyExists),
		errors.Is(err, services.ErrLocationExists),
		errors.Is(err, services.ErrFriendshipExists),
		errors.Is(err, services.ErrScheduleExists):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("Error handling %s %s: %v", r.Method, r.URL.Path, err)
		writeJSONError(w, "服务器内部错误", http.StatusInternalServerError)
	}
}

// decodeJSON reads the request body into v. On failure it writes a 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		writeValidationError(w, validation.NewError(typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field)))
	case errors.Is(err, io.EOF):
		writeJSONError(w, "请求体不能为空", http.StatusBadRequest)
	default:
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
	}
	return false
}

// pathID parses the {id} route variable. On failure it writes a 404, the
// same answer an unknown id gets.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		writeJSONError(w, "资源不存在", http.StatusNotFound)
		return 0, false
	}
	return uint(id), true
}

// callerFrom returns the authenticated user set by the auth middleware.
func callerFrom(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return nil, false
	}
	return caller, true
}
