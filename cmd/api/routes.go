package main

import (
	"net/http"

	"github.com/josh-kwaku/tizim-bank/internal/config"
	"github.com/josh-kwaku/tizim-bank/internal/handler"
	"github.com/josh-kwaku/tizim-bank/internal/middleware"
	"github.com/josh-kwaku/tizim-bank/internal/repository"
)

type routes struct {
	cfg         *config.Config
	health      *handler.HealthHandler
	auth        *handler.AuthHandler
	profile     *handler.ProfileHandler
	ledger      *handler.LedgerHandler
	banks       *handler.BankHandler
	media       *handler.MediaHandler
	idempotency *repository.IdempotencyRepository
	users       *repository.UserRepository
}

func registerRoutes(mux *http.ServeMux, rt routes) {
	authed := middleware.Auth(rt.cfg.JWTSecret)
	idem := middleware.Idempotency(rt.idempotency)
	staff := middleware.VerifyStaff(rt.users)

	protected := func(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
		return middleware.Chain(h, append([]func(http.Handler) http.Handler{authed}, mws...)...)
	}

	mux.HandleFunc("GET /health", rt.health.Liveness)
	mux.HandleFunc("GET /health/ready", rt.health.Readiness)

	mux.HandleFunc("POST /api/v1/auth/register", rt.auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", rt.auth.Login)

	mux.Handle("GET /api/v1/me", protected(rt.profile.Me))
	mux.Handle("PATCH /api/v1/me", protected(rt.profile.Update))
	mux.Handle("POST /api/v1/me/password", protected(rt.profile.ChangePassword))
	mux.Handle("GET /api/v1/me/entries", protected(rt.ledger.Entries))

	mux.Handle("POST /api/v1/transfers", protected(rt.ledger.Transfer, idem))
	mux.Handle("POST /api/v1/top-ups", protected(rt.ledger.TopUp, staff, idem))
	mux.Handle("POST /api/v1/admin/accounts/{id}/adjustments", protected(rt.ledger.Adjust, staff, middleware.RequireStaff))

	mux.HandleFunc("GET /api/v1/banks", rt.banks.List)
	mux.HandleFunc("GET /api/v1/banks/{id}", rt.banks.Get)

	mux.Handle("GET /media/{kind}/{name}", protected(rt.media.Serve, staff))
}
