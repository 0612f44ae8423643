/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the front desk UI

ROUTE GROUPS:
  /api/room-types/*   Room type catalogue
  /api/rooms/*        Room inventory
  /api/guests/*       Guest profiles
  /api/bookings/*     Booking lifecycle
  /api/folios/*       Folio ledger
  /api/charges/*      Charge corrections
  /api/pos/*          Menus, orders, kitchen flow
  /api/reports/*      Revenue, transactions, refunds
  /api/settings/*     Tax configuration
  /api/scenarios/*    Demo data loaders (development only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Inventory
		r.Route("/room-types", func(r chi.Router) {
			r.Get("/", h.ListRoomTypes)
			r.Post("/", h.CreateRoomType)
		})
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Post("/", h.CreateRoom)
			r.Get("/{id}", h.GetRoom)
			r.Put("/{id}/status", h.UpdateRoomStatus)
		})
		r.Route("/guests", func(r chi.Router) {
			r.Get("/", h.ListGuests)
			r.Post("/", h.CreateGuest)
			r.Get("/{id}", h.GetGuest)
		})

		// Booking lifecycle
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.ListBookings)
			r.Post("/", h.CreateBooking)
			r.Post("/hold", h.CreateBookingHold)
			r.Get("/{id}", h.GetBooking)
			r.Post("/{id}/confirm", h.ConfirmBooking)
			r.Post("/{id}/check-in", h.CheckIn)
			r.Post("/{id}/check-out", h.CheckOut)
			r.Post("/{id}/cancel", h.CancelBooking)
			r.Post("/{id}/no-show", h.MarkNoShow)
		})

		// Folio ledger
		r.Route("/folios", func(r chi.Router) {
			r.Get("/{id}", h.GetFolio)
			r.Post("/{id}/charges", h.AddCharge)
			r.Post("/{id}/payments", h.AddPayment)
		})
		r.Post("/charges/{id}/offset", h.OffsetCharge)

		// Point of sale
		r.Route("/pos", func(r chi.Router) {
			r.Route("/menu-items", func(r chi.Router) {
				r.Get("/", h.ListMenuItems)
				r.Post("/", h.CreateMenuItem)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.Post("/", h.CreateOrder)
				r.Get("/{id}", h.GetOrder)
				r.Post("/{id}/status", h.UpdateOrderStatus)
				r.Post("/{id}/cancel", h.CancelOrder)
			})
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/revenue", h.RevenueSummary)
			r.Get("/transactions", h.RevenueTransactions)
			r.Get("/refunds", h.RefundsOwed)
		})

		// Settings
		r.Route("/settings", func(r chi.Router) {
			r.Get("/tax", h.GetTaxConfig)
			r.Put("/tax", h.SetTaxConfig)
		})

		// Demo scenarios (development only)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
