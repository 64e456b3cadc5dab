package api

// CheckRequest asks whether the caller may perform an interaction.
type CheckRequest struct {
	Interaction string `json:"interaction"`
	Anonymous   bool   `json:"anonymous,omitempty"`
}

// CheckResponse is the structured decision payload. Clients use the two
// requirement flags to render the right remediation prompt.
type CheckResponse struct {
	Allowed                   bool   `json:"allowed"`
	RequiresEmailVerification bool   `json:"requires_email_verification"`
	RequiresUsername          bool   `json:"requires_username"`
	Message                   string `json:"message,omitempty"`
}

// ConfirmEmailRequest carries the token from a verification link.
type ConfirmEmailRequest struct {
	Token string `json:"token"`
}

// ConfirmEmailResponse reports a completed email verification.
type ConfirmEmailResponse struct {
	Message    string `json:"message"`
	VerifiedAt string `json:"verified_at"`
}

// StartPasswordResetRequest asks for a reset link.
type StartPasswordResetRequest struct {
	Email string `json:"email"`
}

// ConfirmPasswordResetRequest carries the token from a reset link plus the
// new password.
type ConfirmPasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ClaimUsernameRequest assigns the caller's username.
type ClaimUsernameRequest struct {
	Username string `json:"username"`
}

// StatusResponse is the onboarding snapshot for the caller.
type StatusResponse struct {
	EmailVerified bool   `json:"email_verified"`
	HasUsername   bool   `json:"has_username"`
	State         string `json:"state"`
}

// MessageResponse is a generic success payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a generic failure payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
