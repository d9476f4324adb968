// Package http exposes the lab booking services over a JSON API built on Echo.
//
// Every route under /v1 requires an HS256 bearer token whose `sub` claim is
// the user id and whose `role` claim is `teacher` or `admin`.
//
//   - GET /healthz: liveness probe, no authentication.
//   - GET /v1/rooms, POST /v1/rooms: room catalog exchanging `roomDTO`.
//     Creation requires the admin role.
//   - GET /v1/rooms/:roomID/availability?date=&periods=1,2: occupancy check
//     returning `availabilityResponse`.
//   - GET /v1/rooms/:roomID/agenda?from=&to=&format=json|yaml: day by day
//     occupancy rendered through package export.
//   - GET|POST /v1/rooms/:roomID/fixed-schedules, PUT|DELETE
//     /v1/fixed-schedules/:id: weekly schedules exchanging `fixedScheduleDTO`.
//     Writes require the admin role and report overlaps as warnings.
//   - POST /v1/bookings, GET /v1/bookings/mine, GET /v1/bookings/pending,
//     POST /v1/bookings/:id/{approve,reject,cancel}: booking workflow
//     exchanging `bookingDTO`.
//
// Error bodies carry a Portuguese message, an optional machine readable
// `error_code` and per-field `errors` for validation failures.
package http
