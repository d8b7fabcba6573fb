// internal/app/features/groups/routes.go
package groups

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes wires the group endpoints. Everything under /groups requires
// authentication; requireAuth is the auth.RequireAuth middleware built in
// bootstrap.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)

	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Patch("/{id}", h.HandlePatch)
	r.Delete("/{id}", h.HandleDelete)

	r.Get("/{id}/admins", h.HandleListAdmins)
	r.Get("/{id}/members", h.HandleListMembers)
	r.Get("/{id}/join-requests", h.HandleListJoinRequests)

	r.Post("/{id}/join", h.HandleJoin)
	r.Post("/{id}/approve", h.HandleApprove)
	r.Post("/{id}/promote", h.HandlePromote)
	r.Post("/{id}/remove", h.HandleRemove)
	r.Post("/{id}/leave", h.HandleLeave)

	return r
}
