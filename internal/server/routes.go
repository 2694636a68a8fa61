package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, store Store, registry *Registry, uploadDir string) {
	tenants := NewTenantResolver(store, logger)
	broadcaster := NewBroadcaster(registry, store, tenants, logger)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("QuizRally API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))
	r.Get("/ws/echo", handleWSEcho(logger))

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	// Participant auth and roster.
	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", handleUserRegister(store))
		r.Post("/login", handleUserLogin(store, broadcaster))
		r.Post("/logout", handleUserLogout(store, broadcaster, tenants))
		r.Get("/me", handleUserMe(store))
		r.Post("/verify-code", handleUserVerifyCode(store, broadcaster))
		r.Get("/connected", handleUserConnected(store, tenants))
		r.Post("/force-logout", handleForceLogout(store, broadcaster, tenants))
	})

	// Admin auth and game-code management.
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", handleAdminLogin(store))
		r.Post("/logout", handleAdminLogout(store))
		r.Get("/me", handleAdminMe(store))
		r.Post("/generate-code", handleAdminGenerateCode(store))
		r.Get("/code", handleAdminCode(store))
	})

	// Quiz content and progress.
	r.Route("/api/quiz", func(r chi.Router) {
		r.Post("/register", handleQuizRegister(store, uploadDir))
		r.Get("/", handleQuizList(store))
		r.Put("/{no}", handleQuizUpdate(store, uploadDir))
		r.Delete("/{no}", handleQuizDelete(store))
		r.Post("/solve", handleQuizSolve(store))
		r.Get("/dashboard", handleQuizDashboard(store, tenants))
		r.Get("/structure", handleQuizStructure(store, tenants))
		r.Get("/groups", handleQuizGroups(store, tenants))
		r.Get("/group/{group}", handleQuizByGroup(store, tenants))
		r.Get("/progress", handleQuizProgress(store))
		r.Delete("/history", handleQuizHistoryReset(store, broadcaster, tenants))
	})

	// Game lifecycle and the event stream.
	r.Route("/api/game", func(r chi.Router) {
		r.Get("/events", handleEvents(logger, store, registry, broadcaster, tenants))
		r.Post("/start", handleGameStart(store, broadcaster))
		r.Post("/stop", handleGameStop(store, broadcaster))
		r.Get("/status", handleGameStatus(store, tenants))

		r.Post("/speed/enter", handleAdminBroadcast(store, broadcaster, eventSpeedEnter, "Speed Game Enter"))
		r.Post("/speed/start", handleAdminBroadcast(store, broadcaster, eventSpeedStart, "Speed Game Start"))
		r.Post("/speed/reset", handleSpeedReset(store, broadcaster, tenants))
		r.Post("/speed/buzz", handleSpeedBuzz(store, broadcaster, tenants))
		r.Get("/speed/ranking", handleSpeedRanking(store, tenants))

		r.Post("/mission/enter", handleAdminBroadcast(store, broadcaster, eventMissionEnter, "Mission Game Enter"))
		r.Post("/mission/complete", handleMissionComplete(store, broadcaster, tenants))
		r.Get("/mission/ranking", handleMissionRanking(store, tenants))
	})
}
