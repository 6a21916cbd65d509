package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/chore"
	"github.com/dukerupert/homebase/internal/dayclock"
	"github.com/dukerupert/homebase/internal/handler"
	"github.com/dukerupert/homebase/internal/kv"
	"github.com/dukerupert/homebase/internal/middleware"
	"github.com/dukerupert/homebase/internal/notify"
	"github.com/dukerupert/homebase/internal/project"
	"github.com/dukerupert/homebase/internal/push"
	"github.com/dukerupert/homebase/internal/store"
	ws "github.com/dukerupert/homebase/internal/websocket"
)

// Interactive endpoints that hand out work are limited per user.
const (
	assignLimit  = 20
	assignWindow = time.Minute
)

// Deps are the process-level resources a Server is built from.
type Deps struct {
	DB       *sql.DB
	Cache    kv.Store
	Notifier notify.Sender
	Push     *push.Service
	Tokens   *auth.Tokens
	Clock    dayclock.Clock
	Logger   *slog.Logger
}

// Services are the domain services shared by the HTTP API and the trigger.
type Services struct {
	Households *store.HouseholdStore
	Users      *store.UserStore
	Chores     *chore.Service
	Projects   *project.Service
}

// EventPublisher receives live household events.
type EventPublisher interface {
	Publish(householdID int64, entity, action string, id int64)
}

// NewServices wires the stores and domain services over d. events may be nil.
func NewServices(d Deps, events EventPublisher) Services {
	households := store.NewHouseholdStore(d.DB)
	users := store.NewUserStore(d.DB)

	return Services{
		Households: households,
		Users:      users,
		Chores: chore.NewService(chore.Deps{
			Chores:     store.NewChoreStore(d.DB),
			Users:      users,
			Households: households,
			Cache:      d.Cache,
			Notifier:   d.Notifier,
			Clock:      d.Clock,
			Events:     events,
			Logger:     d.Logger.With("component", "chore"),
		}),
		Projects: project.NewService(project.Deps{
			Projects:   store.NewProjectStore(d.DB),
			Users:      users,
			Households: households,
			Cache:      d.Cache,
			Notifier:   d.Notifier,
			Clock:      d.Clock,
			Events:     events,
			Logger:     d.Logger.With("component", "project"),
		}),
	}
}

type Server struct {
	hub         *ws.Hub
	services    Services
	tokens      *auth.Tokens
	choreH      *handler.ChoreHandler
	projectH    *handler.ProjectHandler
	householdH  *handler.HouseholdHandler
	pushH       *handler.PushHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(d Deps) *Server {
	hub := ws.NewHub(d.Logger.With("component", "websocket"))
	svc := NewServices(d, hub)
	pushStore := store.NewPushStore(d.DB)

	return &Server{
		hub:         hub,
		services:    svc,
		tokens:      d.Tokens,
		choreH:      handler.NewChoreHandler(svc.Chores, d.Logger.With("component", "chore_handler")),
		projectH:    handler.NewProjectHandler(svc.Projects, d.Logger.With("component", "project_handler")),
		householdH:  handler.NewHouseholdHandler(svc.Households, svc.Users, pushStore, svc.Chores, d.Logger.With("component", "household_handler")),
		pushH:       handler.NewPushHandler(pushStore, d.Push, d.Logger.With("component", "push_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      d.Logger,
	}
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Services() Services {
	return s.services
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Authenticated, household not required yet.
	memberMux := http.NewServeMux()
	memberMux.HandleFunc("POST /api/households", s.householdH.Create)
	memberMux.HandleFunc("POST /api/households/members", s.householdH.Join)
	memberMux.HandleFunc("PUT /api/users/me/telegram", s.householdH.SetTelegram)

	householdMux := http.NewServeMux()
	s.registerHouseholdRoutes(householdMux)
	memberMux.Handle("/", middleware.RequireHousehold(householdMux))

	authMiddleware := middleware.RequireAuth(s.tokens, s.services.Users)
	outerMux.Handle("/", authMiddleware(memberMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.ByUser, assignLimit, assignWindow)(h)
}

func (s *Server) registerHouseholdRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/households/current", s.householdH.Current)
	mux.HandleFunc("PUT /api/households/current", s.householdH.UpdateSettings)
	mux.HandleFunc("DELETE /api/households/members/{id}", s.householdH.Remove)

	mux.HandleFunc("GET /api/chores", s.choreH.Overview)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("GET /api/chores/current", s.choreH.Current)
	mux.Handle("POST /api/chores/next", s.rateLimited(s.choreH.Next))
	mux.Handle("POST /api/chores/skip", s.rateLimited(s.choreH.Skip))
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)

	mux.HandleFunc("GET /api/projects", s.projectH.List)
	mux.HandleFunc("POST /api/projects", s.projectH.Create)
	mux.HandleFunc("DELETE /api/projects/{id}", s.projectH.Delete)

	mux.HandleFunc("POST /api/tasks", s.projectH.CreateTask)
	mux.HandleFunc("GET /api/tasks/ready", s.projectH.Ready)
	mux.HandleFunc("GET /api/tasks/assigned", s.projectH.Assigned)
	mux.Handle("POST /api/tasks/assign", s.rateLimited(s.projectH.Assign))
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.projectH.CompleteTask)
	mux.HandleFunc("PUT /api/tasks/{id}/requirements", s.projectH.SetRequirements)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.projectH.DeleteTask)

	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscribe", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
