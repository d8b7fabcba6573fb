// internal/app/features/profile/routes.go
package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes wires the profile endpoints. All of them require authentication.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)

	r.Get("/me", h.HandleMe)
	r.Patch("/me", h.HandlePatchMe)
	r.Get("/groups-iam-admin", h.HandleGroupsIAmAdmin)
	r.Get("/groups-iam-member", h.HandleGroupsIAmMember)

	return r
}
