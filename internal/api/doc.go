// Package api provides the HTTP handlers: gameplay routes for learners
// and content administration routes for staff. Handlers decode and
// validate requests, call the service layer and translate its errors
// with HandleAPIError.
package api
