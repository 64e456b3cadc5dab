package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/campuslink/campus-verify/pkg/account"
	"github.com/campuslink/campus-verify/pkg/gate"
	"github.com/campuslink/campus-verify/pkg/permission"
	"github.com/campuslink/campus-verify/pkg/verifytoken"
)

// Generic user-facing failure text. Internal detail goes to slog only.
const (
	msgTokenInvalid = "Invalid or expired link. Please request a new one"
	msgTryAgain     = "Something went wrong. Please try again"
)

// Handler exposes the verification flow over HTTP.
type Handler struct {
	service *gate.GateService
}

// NewHandler creates a new verification-flow API handler.
func NewHandler(service *gate.GateService) *Handler {
	return &Handler{service: service}
}

// CheckInteraction handles POST /check
func (h *Handler) CheckInteraction(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	interaction := permission.InteractionType(req.Interaction)
	if !permission.Known(interaction) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Unknown interaction type"})
		return
	}

	result, err := h.service.CheckInteraction(r.Context(), accountID, interaction, req.Anonymous)
	if err != nil {
		h.renderAccountError(w, r, err, "Failed to check interaction")
		return
	}

	var resp CheckResponse
	copier.Copy(&resp, &result)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// SendVerificationEmail handles POST /email-verification/send
func (h *Handler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.service.StartEmailVerification(r.Context(), accountID); err != nil {
		status := http.StatusInternalServerError
		message := msgTryAgain

		switch {
		case errors.Is(err, account.ErrAccountNotFound):
			status = http.StatusNotFound
			message = "Account not found"
		case errors.Is(err, gate.ErrAlreadyVerified):
			status = http.StatusBadRequest
			message = "Email is already verified"
		case errors.Is(err, gate.ErrRateLimitExceeded):
			status = http.StatusTooManyRequests
			message = "Too many verification emails sent. Please try again later"
		default:
			slog.Error("Failed to send verification email", "err", err)
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Verification email sent"})
}

// ConfirmEmailVerification handles POST /email-verification/confirm
func (h *Handler) ConfirmEmailVerification(w http.ResponseWriter, r *http.Request) {
	var req ConfirmEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Token is required"})
		return
	}

	if _, err := h.service.ConfirmEmailVerification(r.Context(), req.Token); err != nil {
		// Stale, forged, used, superseded: all the same answer.
		if errors.Is(err, verifytoken.ErrTokenInvalid) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: msgTokenInvalid})
			return
		}

		slog.Error("Failed to confirm email verification", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: msgTryAgain})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ConfirmEmailResponse{
		Message:    "Email verified successfully",
		VerifiedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// StartPasswordReset handles POST /password-reset/send
func (h *Handler) StartPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req StartPasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Email is required"})
		return
	}

	if err := h.service.StartPasswordReset(r.Context(), req.Email); err != nil {
		slog.Error("Failed to start password reset", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: msgTryAgain})
		return
	}

	// Same answer whether or not the email has an account.
	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "If that email has an account, a reset link is on its way"})
}

// ConfirmPasswordReset handles POST /password-reset/confirm
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ConfirmPasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Token == "" || req.NewPassword == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Token and new password are required"})
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, verifytoken.ErrTokenInvalid) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: msgTokenInvalid})
			return
		}

		slog.Error("Failed to confirm password reset", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: msgTryAgain})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Password reset successfully"})
}

// ClaimUsername handles PUT /username
func (h *Handler) ClaimUsername(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req ClaimUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.service.ClaimUsername(r.Context(), accountID, req.Username); err != nil {
		status := http.StatusInternalServerError
		message := msgTryAgain

		switch {
		case errors.Is(err, gate.ErrInvalidUsername):
			status = http.StatusBadRequest
			message = err.Error()
		case errors.Is(err, account.ErrUsernameTaken):
			status = http.StatusConflict
			message = "That username is already taken"
		case errors.Is(err, account.ErrAccountNotFound):
			status = http.StatusNotFound
			message = "Account not found"
		default:
			slog.Error("Failed to claim username", "err", err)
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Username set"})
}

// GetVerificationStatus handles GET /status
func (h *Handler) GetVerificationStatus(w http.ResponseWriter, r *http.Request) {
	accountID, err := getAccountIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	status, err := h.service.VerificationStatus(r.Context(), accountID)
	if err != nil {
		h.renderAccountError(w, r, err, "Failed to get verification status")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, StatusResponse{
		EmailVerified: status.EmailVerified,
		HasUsername:   status.HasUsername,
		State:         string(status.State),
	})
}

func (h *Handler) renderAccountError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	if errors.Is(err, account.ErrAccountNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: "Account not found"})
		return
	}

	slog.Error(logMsg, "err", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{Error: msgTryAgain})
}

// getAccountIDFromContext extracts the caller's account ID from the JWT in
// the request context. The jwtauth verifier is the normal path; the legacy
// "jwt" context value is kept for callers still using the old middleware.
func getAccountIDFromContext(r *http.Request) (uuid.UUID, error) {
	if _, claims, err := jwtauth.FromContext(r.Context()); err == nil && claims != nil {
		if id, err := accountIDFromClaims(claims); err == nil {
			return id, nil
		}
	}

	token, ok := r.Context().Value("jwt").(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, errors.New("no JWT token found in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid JWT claims")
	}

	return accountIDFromClaims(claims)
}

func accountIDFromClaims(claims map[string]interface{}) (uuid.UUID, error) {
	idStr, ok := claims["account_id"].(string)
	if !ok || idStr == "" {
		idStr, ok = claims["sub"].(string)
		if !ok || idStr == "" {
			return uuid.Nil, errors.New("account_id not found in JWT claims")
		}
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid account_id in JWT claims")
	}

	return id, nil
}
