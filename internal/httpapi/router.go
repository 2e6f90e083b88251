package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the full HTTP surface. Customer endpoints are open;
// staff endpoints sit behind the shared-token check.
func NewRouter(h *Handlers, staffToken string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		// Customer surface.
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/ref/{ref}", h.GetOrderByReference)
		r.Post("/precheck", h.Precheck)
		r.Post("/estimate", h.Estimate)
		r.Post("/assistant", h.Ask)
		r.Get("/config", h.GetConfig)

		// Staff surface.
		r.Group(func(r chi.Router) {
			r.Use(requireStaff(staffToken))
			r.Get("/orders", h.ListOrders)
			r.Patch("/orders/{id}/status", h.SetStatus)
			r.Delete("/orders/{id}", h.DeleteOrder)
			r.Post("/orders/{id}/summary", h.Summarize)
		})
	})

	r.Route("/ws", func(r chi.Router) {
		r.Get("/orders/{ref}", h.OrderFeed)
		r.With(requireStaff(staffToken)).Get("/orders", h.StaffFeed)
	})

	return r
}

// requireStaff gates staff endpoints on the shared bearer token. Websocket
// upgrades cannot set headers from the browser, so the token is also
// accepted as a query parameter.
func requireStaff(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.Error(w, "staff access not configured", http.StatusForbidden)
				return
			}
			got := r.Header.Get("Authorization")
			if got == "Bearer "+token || r.URL.Query().Get("token") == token {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}
