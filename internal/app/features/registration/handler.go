// internal/app/features/registration/handler.go
package registration

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ugcampus/grouphub/internal/app/features/shared/api"
	"github.com/ugcampus/grouphub/internal/app/store/pendingusers"
	"github.com/ugcampus/grouphub/internal/app/store/users"
	"github.com/ugcampus/grouphub/internal/app/system/auth"
	"github.com/ugcampus/grouphub/internal/app/system/htmlsanitize"
	"github.com/ugcampus/grouphub/internal/app/system/limits"
	"github.com/ugcampus/grouphub/internal/app/system/normalize"
	"github.com/ugcampus/grouphub/internal/app/system/ratelimit"
	"github.com/ugcampus/grouphub/internal/app/system/timeouts"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// VerifyEmailPath is where a mid-verification client is redirected.
const VerifyEmailPath = "/verify-email/"

// Handler owns the signup, sign-in, and password reset endpoints.
type Handler struct {
	Users   *userstore.Store
	Pending *pendingstore.Store
	Codes   *CodeManager
	Resets  *ResetManager
	Issuer  *auth.Issuer
	Signins *ratelimit.SigninLimiter
	Log     *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	pending *pendingstore.Store,
	codes *CodeManager,
	resets *ResetManager,
	issuer *auth.Issuer,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:   users,
		Pending: pending,
		Codes:   codes,
		Resets:  resets,
		Issuer:  issuer,
		Signins: ratelimit.NewSigninLimiter(),
		Log:     logger,
	}
}

// HandleSignup handles POST /signup.
//
// A verified account already owning the email is a conflict. Otherwise any
// previous draft for the email is superseded, the first verification code
// goes out, and the client is steered to the verification screen with 307.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var req signupRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "malformed request body")
		return
	}

	email := normalize.Email(req.Email)
	if email == "" || req.FirstName == "" || req.LastName == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "firstName, lastName, email, and password are required")
		return
	}
	// A taken email is reported before any password validation.
	if _, err := h.Users.GetByEmail(ctx, email); err == nil {
		api.WriteError(w, http.StatusConflict, api.KindConflict, "an account with this email already exists")
		return
	} else if err != mongo.ErrNoDocuments {
		h.Log.Error("signup: user lookup failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	if req.Password != req.PasswordConfirmation {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "passwords do not match")
		return
	}

	digest, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("signup: hash password failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	draft := models.PendingUser{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Password:      digest,
		ProfileImage:  req.ProfileImage,
		Bio:           htmlsanitize.StripTags(req.Bio),
		UserType:      req.UserType,
		Division:      req.Division,
		AcademicLevel: req.AcademicLevel,
		DegreeName:    req.DegreeName,
		Verification:  models.EmailVerification{Email: email},
	}
	if _, err := h.Pending.Replace(ctx, draft); err != nil {
		h.Log.Error("signup: store draft failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	if _, err := h.Codes.GenerateAndSend(ctx, email); err != nil {
		h.Log.Error("signup: send first code failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	api.WriteJSON(w, http.StatusTemporaryRedirect, redirectResponse{
		RedirectPath: VerifyEmailPath,
		Email:        email,
	})
}

// HandleVerifyEmail handles POST /verify-email. A matching, fresh code
// promotes the draft to a verified user and signs the new account in.
func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var req verifyEmailRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "malformed request body")
		return
	}

	draft, err := h.Codes.Verify(ctx, normalize.Email(req.Email), req.Code)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoDraft):
		api.WriteError(w, http.StatusNotFound, api.KindNotFound, "no pending signup for this email")
		return
	case errors.Is(err, ErrCodeMismatch):
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "verification code does not match")
		return
	case errors.Is(err, ErrCodeExpired):
		api.WriteError(w, http.StatusBadRequest, api.KindExpired, "verification code has expired, request a new one")
		return
	default:
		h.Log.Error("verify-email: check code failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	user, err := h.Users.Create(ctx, draft.Promote(time.Now().UTC()))
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			// Lost a race with another verification for the same email.
			api.WriteError(w, http.StatusConflict, api.KindConflict, "an account with this email already exists")
			return
		}
		h.Log.Error("verify-email: promote draft failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}
	if err := h.Pending.Delete(ctx, draft.Verification.Email); err != nil {
		// The unique index keeps a stale draft harmless; log and move on.
		h.Log.Warn("verify-email: delete draft failed",
			zap.String("email", draft.Verification.Email),
			zap.Error(err))
	}

	token, err := h.Issuer.Issue(user.ID)
	if err != nil {
		h.Log.Error("verify-email: issue token failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, token)
}

// HandleResendCode handles GET /resend-verification-code?email=…
func (h *Handler) HandleResendCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	email := normalize.Email(r.URL.Query().Get("email"))
	if email == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "email query parameter is required")
		return
	}

	availableAt, err := h.Codes.Resend(ctx, email)
	var tooSoon *ResendTooSoonError
	switch {
	case err == nil:
	case errors.Is(err, ErrNoDraft):
		api.WriteError(w, http.StatusNotFound, api.KindNotFound, "no pending signup for this email")
		return
	case errors.As(err, &tooSoon):
		api.WriteRateLimited(w, "a code was sent recently", tooSoon.AvailableAt)
		return
	default:
		h.Log.Error("resend-code failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	api.WriteJSON(w, http.StatusOK, resendResponse{
		Message:     "verification code sent",
		AvailableAt: availableAt.Format(time.RFC3339),
	})
}

// HandleSignin handles POST /signin.
//
// Three outcomes: a verified account with the right password gets a token; a
// pending signup is redirected to verification with 307; anything else is
// 404 or 401.
func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var req signinRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "malformed request body")
		return
	}
	email := normalize.Email(req.Email)

	if allowed, reason := h.Signins.Check(r, email); !allowed {
		api.WriteError(w, http.StatusBadRequest, api.KindRateLimited, reason)
		return
	}

	user, err := h.Users.GetByEmail(ctx, email)
	if err == nil {
		if !auth.CheckPassword(req.Password, user.Password) {
			api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "incorrect email or password")
			return
		}
		token, err := h.Issuer.Issue(user.ID)
		if err != nil {
			h.Log.Error("signin: issue token failed", zap.Error(err))
			api.WriteInternal(w)
			return
		}
		h.Signins.ResetEmail(email)
		api.WriteJSON(w, http.StatusOK, token)
		return
	}
	if err != mongo.ErrNoDocuments {
		h.Log.Error("signin: user lookup failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	// No verified account; an unverified draft steers back to verification.
	if _, err := h.Pending.GetByEmail(ctx, email); err == nil {
		api.WriteJSON(w, http.StatusTemporaryRedirect, redirectResponse{
			RedirectPath: VerifyEmailPath,
			Email:        email,
		})
		return
	} else if err != mongo.ErrNoDocuments {
		h.Log.Error("signin: draft lookup failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	api.WriteError(w, http.StatusNotFound, api.KindNotFound, "no account with this email")
}

// HandleRequestPasswordReset handles POST /request-password-reset.
func (h *Handler) HandleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var req requestResetRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "malformed request body")
		return
	}

	err := h.Resets.Request(ctx, req.Email)
	var tooSoon *ResetTooSoonError
	switch {
	case err == nil:
	case errors.Is(err, ErrNoUser):
		api.WriteError(w, http.StatusNotFound, api.KindNotFound, "no account with this email")
		return
	case errors.As(err, &tooSoon):
		api.WriteRateLimited(w, "a reset link was sent recently", tooSoon.AvailableAt)
		return
	default:
		h.Log.Error("request-password-reset failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	api.WriteJSON(w, http.StatusOK, messageResponse{Message: "password reset email sent"})
}

// HandleResetPassword handles POST /reset-password.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var req resetPasswordRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "malformed request body")
		return
	}
	if req.Token == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "token and password are required")
		return
	}
	if req.Password != req.PasswordConfirmation {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "passwords do not match")
		return
	}

	switch err := h.Resets.Consume(ctx, req.Token, req.Password); {
	case err == nil:
	case errors.Is(err, ErrResetTokenInvalid):
		api.WriteError(w, http.StatusBadRequest, api.KindExpired, "reset token is invalid or expired")
		return
	default:
		h.Log.Error("reset-password failed", zap.Error(err))
		api.WriteInternal(w)
		return
	}

	api.WriteJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}
