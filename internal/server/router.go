// Package server wires the handlers, services and middleware into one
// http.Handler.
package server

import (
	"net/http"

	"github.com/diewo77/haulage/httpx"
	"github.com/diewo77/haulage/internal/events"
	"github.com/diewo77/haulage/internal/handlers"
	"github.com/diewo77/haulage/internal/middleware"
	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/services"
	"github.com/diewo77/haulage/internal/store"

	"gorm.io/gorm"
)

// Options are the optional collaborators of the API.
type Options struct {
	Events      events.Publisher
	Mailer      handlers.StatementMailer
	Company     string
	RateLimiter *middleware.RateLimiter
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, opts Options) http.Handler {
	mux := http.NewServeMux()

	dir := services.NewDirectoryService(db)
	trips := services.NewTripService(db, opts.Events)
	calcs := services.NewCalculationService(store.NewGormCalculationStore(db), opts.Events)

	hh := &handlers.HealthHandler{DB: db}
	dh := handlers.NewDirectoryHandler(dir)
	th := handlers.NewTripHandler(trips)
	ch := &handlers.CalculationHandler{Trips: trips, Calcs: calcs, Dir: dir, Mailer: opts.Mailer, Company: opts.Company}

	// --- Health ---
	mux.HandleFunc("GET /health", hh.Live)
	mux.HandleFunc("GET /healthz", hh.Ready)

	// --- Directory ---
	mux.HandleFunc("GET /drivers", dh.ListDrivers)
	mux.HandleFunc("POST /drivers", dh.CreateDriver)
	mux.HandleFunc("GET /fleet-owners", dh.ListFleetOwners)
	mux.HandleFunc("POST /fleet-owners", dh.CreateFleetOwner)
	mux.HandleFunc("GET /vehicles", dh.ListVehicles)
	mux.HandleFunc("POST /vehicles", dh.CreateVehicle)

	// --- Trips ---
	mux.HandleFunc("GET /trips", th.List)
	mux.HandleFunc("POST /trips", th.Create)
	mux.HandleFunc("GET /trips/{id}", th.Get)
	mux.HandleFunc("GET /drivers/{id}/trips", th.ForDriver)
	mux.HandleFunc("GET /fleet-owners/{id}/trips", th.ForFleetOwner)
	mux.HandleFunc("POST /trips/{id}/advances", th.AddEntry(models.CategoryAdvance))
	mux.HandleFunc("DELETE /trips/{id}/advances/{index}", th.DeleteEntry(models.CategoryAdvance))
	mux.HandleFunc("POST /trips/{id}/expenses", th.AddEntry(models.CategoryExpense))
	mux.HandleFunc("DELETE /trips/{id}/expenses/{index}", th.DeleteEntry(models.CategoryExpense))
	mux.HandleFunc("PATCH /trips/{id}/pod-status", th.UpdatePodStatus)
	mux.HandleFunc("POST /trips/{id}/pod-status/advance", th.AdvancePod)

	// --- Settlements ---
	mux.HandleFunc("POST /settlements/preview", ch.Preview)
	mux.HandleFunc("POST /calculations", ch.Create)
	mux.HandleFunc("GET /calculations/{id}", ch.Get)
	mux.HandleFunc("PUT /calculations/{id}", ch.Update)
	mux.HandleFunc("DELETE /calculations/{id}", ch.Delete)
	mux.HandleFunc("GET /calculations/{id}/statement.pdf", ch.StatementPDF)
	mux.HandleFunc("POST /calculations/{id}/email", ch.Email)
	mux.HandleFunc("GET /drivers/{id}/calculations", ch.ForDriver)
	mux.HandleFunc("GET /fleet-owners/{id}/calculations", ch.ForFleetOwner)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	})

	var h http.Handler = mux
	if opts.RateLimiter != nil {
		h = opts.RateLimiter.Middleware(h)
	}
	return middleware.RequestID(middleware.Logging(middleware.Recover(middleware.Lang(h))))
}
