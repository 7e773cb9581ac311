package apiserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"schedule-go/internal/health"
	"schedule-go/internal/middleware"
	"schedule-go/internal/services"
)

// Services bundles what the REST handlers need.
type Services struct {
	Auth        services.AuthService
	Users       services.UserService
	Locations   services.LocationService
	Schedules   services.ScheduleService
	Friendships services.FriendshipService
}

// RouterOptions configures the optional parts of the router.
type RouterOptions struct {
	// Metrics, when set, instruments every route and MetricsHandler is
	// served at MetricsPath.
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	MetricsPath    string
	// Ready backs /ready; nil means always ready.
	Ready health.Pinger
}

// NewRouter wires the REST API. Paths are matched with or without a
// trailing slash.
func NewRouter(svcs Services, opts RouterOptions) http.Handler {
	authHandler := NewAuthHandler(svcs.Auth)
	userHandler := NewUserHandler(svcs.Users)
	locationHandler := NewLocationHandler(svcs.Locations)
	scheduleHandler := NewScheduleHandler(svcs.Schedules)
	friendshipHandler := NewFriendshipHandler(svcs.Friendships)

	r := mux.NewRouter()
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "资源不存在", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "不支持的请求方法", http.StatusMethodNotAllowed)
	})

	r.HandleFunc("/health", health.Handler).Methods(http.MethodGet)
	r.HandleFunc("/ready", health.ReadyHandler(opts.Ready)).Methods(http.MethodGet)
	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, opts.MetricsHandler).Methods(http.MethodGet)
	}

	// 公开路由 (不需要认证)
	public := r.PathPrefix("/api/user").Subrouter()
	public.HandleFunc("/create", authHandler.CreateUser).Methods(http.MethodPost)
	public.HandleFunc("/token", authHandler.Token).Methods(http.MethodPost)

	// API 子路由 (需要认证)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(svcs.Auth))

	api.HandleFunc("/user/logout", authHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/user/me", userHandler.GetMe).Methods(http.MethodGet)
	api.HandleFunc("/user/me", userHandler.UpdateMe).Methods(http.MethodPatch)
	api.HandleFunc("/user/me", userHandler.DeleteMe).Methods(http.MethodDelete)

	api.HandleFunc("/location/locations", locationHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/location/locations", locationHandler.Create).Methods(http.MethodPost)

	api.HandleFunc("/schedule/schedules", scheduleHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/schedule/schedules", scheduleHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/schedule/schedules/{id:[0-9]+}", scheduleHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/schedule/schedules/{id:[0-9]+}", scheduleHandler.Replace).Methods(http.MethodPut)
	api.HandleFunc("/schedule/schedules/{id:[0-9]+}", scheduleHandler.Update).Methods(http.MethodPatch)
	api.HandleFunc("/schedule/schedules/{id:[0-9]+}", scheduleHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/schedule/lessons", scheduleHandler.ListLessons).Methods(http.MethodGet)
	api.HandleFunc("/schedule/lessons/{id:[0-9]+}", scheduleHandler.GetLesson).Methods(http.MethodGet)

	api.HandleFunc("/friendship/friends", friendshipHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/friendship/friends", friendshipHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/friendship/friends/{id:[0-9]+}", friendshipHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/friendship/friends/{id:[0-9]+}", friendshipHandler.Update).Methods(http.MethodPatch)
	api.HandleFunc("/friendship/friends/{id:[0-9]+}", friendshipHandler.Delete).Methods(http.MethodDelete)

	return trimTrailingSlash(r)
}

// trimTrailingSlash lets "/api/schedule/schedules/" and
// "/api/schedule/schedules" reach the same route.
func trimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = strings.TrimRight(r.URL.Path, "/")
			if r.URL.RawPath != "" {
				r.URL.RawPath = strings.TrimRight(r.URL.RawPath, "/")
			}
		}
		next.ServeHTTP(w, r)
	})
}
