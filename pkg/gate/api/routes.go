package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

// Routes registers the verification-flow endpoints. Token confirmation and
// password reset are public; the link arrives by email and the caller may
// not have a session. Everything acting on "the current account" sits
// behind the JWT verifier.
func Routes(r chi.Router, handler *Handler, jwtAuth *jwtauth.JWTAuth) {
	r.Route("/api/verify", func(r chi.Router) {
		r.Post("/email-verification/confirm", handler.ConfirmEmailVerification)
		r.Post("/password-reset/send", handler.StartPasswordReset)
		r.Post("/password-reset/confirm", handler.ConfirmPasswordReset)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtAuth))
			r.Use(jwtauth.Authenticator(jwtAuth))

			r.Post("/check", handler.CheckInteraction)
			r.Post("/email-verification/send", handler.SendVerificationEmail)
			r.Put("/username", handler.ClaimUsername)
			r.Get("/status", handler.GetVerificationStatus)
		})
	})
}
