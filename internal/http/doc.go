// Package http exposes the room booking services as a JSON API.
//
// Endpoints (all but POST /sessions require a session token passed as
// `Authorization: Bearer <token>` or the `session_token` cookie):
//   - POST /sessions, DELETE /sessions/current: sign in and sign out.
//   - GET /users, POST /users: administrator user management.
//   - GET /rooms, POST /rooms, GET/PUT/DELETE /rooms/{id}: the room catalog.
//     Listing accepts min_capacity, location and include_inactive filters.
//     DELETE deactivates the room.
//   - GET /rooms/{id}/availability?date=YYYY-MM-DD: blocked intervals of a
//     room on one date, sorted by start time.
//   - GET/POST /rooms/{id}/fixed-schedules, PUT/DELETE /fixed-schedules/{id}:
//     weekly class entries.
//   - POST /bookings, GET /bookings/mine, GET /bookings/pending,
//     GET /bookings/{id}, POST /bookings/{id}/decision,
//     GET /bookings/{id}/approvals: booking submission and approval.
//
// Error bodies share the errorResponse shape. Slot conflicts return 409 with
// the overlapping intervals under "conflicts"; field problems return 422 with
// per-field messages under "errors".
//
// Request/response DTOs live alongside their respective handlers.
package http
