// internal/app/features/registration/routes.go
package registration

import "github.com/go-chi/chi/v5"

// Routes returns the public (unauthenticated) registration endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.HandleSignup)
	r.Post("/verify-email", h.HandleVerifyEmail)
	r.Get("/resend-verification-code", h.HandleResendCode)
	r.Post("/signin", h.HandleSignin)
	r.Post("/request-password-reset", h.HandleRequestPasswordReset)
	r.Post("/reset-password", h.HandleResetPassword)
	return r
}
