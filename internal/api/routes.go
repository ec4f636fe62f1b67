package api

import (
	"net/http"

	"iserve/internal/auth"
	"iserve/internal/db"
	"iserve/internal/pubsub"
	"iserve/internal/service"
	"iserve/internal/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Dependencies struct {
	DB         *db.Pool
	Bus        *pubsub.Bus
	Hub        *ws.Hub
	Log        *zap.Logger
	JWT        *auth.JWTConfig
	Users      *service.UserService
	Demands    *service.DemandService
	Responses  *service.ResponseService
	Files      *service.FileService
	Statistics *service.StatisticsService
	AuthLimit  *rate.Limiter
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(d.Log))
	r.Use(d.JWT.Middleware)

	// Auth endpoints; credentials travel in query parameters, which is the
	// wire contract the front-end ships with.
	r.Group(func(r chi.Router) {
		if d.AuthLimit != nil {
			r.Use(RateLimit(d.AuthLimit, d.Log))
		}
		r.Post("/auth/login", d.login)
		r.Post("/auth/register", d.register)
		r.Post("/auth/register-admin", d.registerAdmin)
	})

	// Demand endpoints
	r.Get("/demands", d.listDemands)
	r.Get("/demands/{id}", d.getDemand)
	r.Get("/demands/{id}/file/resource", d.downloadDemandFile)
	r.Get("/statistics/demand/creation/monthly", d.demandCreationMonthly)
	r.Get("/statistics/demand/responded/monthly", d.demandRespondedMonthly)
	r.Get("/responses", d.listResponses)
	r.Get("/responses/{id}/file/resource", d.downloadResponseFile)

	// Mutations require a valid token
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Put("/users/{username}", d.updateProfile)

		r.Post("/demands", d.createDemand)
		r.Put("/demands/{id}", d.updateDemand)
		r.Delete("/demands/{id}", d.deleteDemand)

		r.Post("/demands/{id}/responses", d.createResponse)
		r.Put("/responses/{id}", d.updateResponse)
		r.Delete("/responses/{id}", d.deleteResponse)

		r.Post("/demands/{id}/file", d.uploadDemandFile)
		r.Put("/demands/{id}/file", d.replaceDemandFile)
		r.Delete("/demands/{id}/file", d.deleteDemandFile)
		r.Post("/responses/{id}/file", d.uploadResponseFile)
		r.Put("/responses/{id}/file", d.replaceResponseFile)
		r.Delete("/responses/{id}/file", d.deleteResponseFile)
	})

	// WebSocket endpoint
	r.Get("/ws", d.wsHandler)

	return r
}
