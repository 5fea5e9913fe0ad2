package http

import (
	"context"
	"net/http"
)

type RouterConfig struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Rooms          *RoomHandler
	FixedSchedules *FixedScheduleHandler
	Bookings       *BookingHandler
	// Session guards every route except POST /sessions. A nil Session leaves
	// routes unguarded, which only tests should rely on.
	Session    func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.Session == nil {
			return h
		}
		return cfg.Session(h)
	}
	withPathID := func(inject func(context.Context, string) context.Context, h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			h(w, r.WithContext(inject(r.Context(), r.PathValue("id"))))
		}
	}

	if cfg.Auth != nil {
		mux.HandleFunc("POST /sessions", cfg.Auth.CreateSession)
		mux.Handle("DELETE /sessions/current", protect(cfg.Auth.DeleteCurrentSession))
	}

	if cfg.Users != nil {
		mux.Handle("GET /users", protect(cfg.Users.List))
		mux.Handle("POST /users", protect(cfg.Users.Create))
	}

	if cfg.Rooms != nil {
		mux.Handle("GET /rooms", protect(cfg.Rooms.List))
		mux.Handle("POST /rooms", protect(cfg.Rooms.Create))
		mux.Handle("GET /rooms/{id}", protect(withPathID(ContextWithRoomID, cfg.Rooms.Get)))
		mux.Handle("PUT /rooms/{id}", protect(withPathID(ContextWithRoomID, cfg.Rooms.Update)))
		mux.Handle("DELETE /rooms/{id}", protect(withPathID(ContextWithRoomID, cfg.Rooms.Deactivate)))
	}

	if cfg.FixedSchedules != nil {
		mux.Handle("GET /rooms/{id}/fixed-schedules", protect(withPathID(ContextWithRoomID, cfg.FixedSchedules.List)))
		mux.Handle("POST /rooms/{id}/fixed-schedules", protect(withPathID(ContextWithRoomID, cfg.FixedSchedules.Create)))
		mux.Handle("PUT /fixed-schedules/{id}", protect(withPathID(ContextWithEntryID, cfg.FixedSchedules.Update)))
		mux.Handle("DELETE /fixed-schedules/{id}", protect(withPathID(ContextWithEntryID, cfg.FixedSchedules.Delete)))
	}

	if cfg.Bookings != nil {
		mux.Handle("GET /rooms/{id}/availability", protect(withPathID(ContextWithRoomID, cfg.Bookings.Availability)))
		mux.Handle("POST /bookings", protect(cfg.Bookings.Submit))
		mux.Handle("GET /bookings/mine", protect(cfg.Bookings.Mine))
		mux.Handle("GET /bookings/pending", protect(cfg.Bookings.Pending))
		mux.Handle("GET /bookings/{id}", protect(withPathID(ContextWithBookingID, cfg.Bookings.Get)))
		mux.Handle("POST /bookings/{id}/decision", protect(withPathID(ContextWithBookingID, cfg.Bookings.Decide)))
		mux.Handle("GET /bookings/{id}/approvals", protect(withPathID(ContextWithBookingID, cfg.Bookings.Approvals)))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
