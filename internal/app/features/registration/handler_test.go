// internal/app/features/registration/handler_test.go
package registration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ugcampus/grouphub/internal/app/features/shared/api"
	"github.com/ugcampus/grouphub/internal/app/store/pendingusers"
	"github.com/ugcampus/grouphub/internal/app/store/resettokens"
	"github.com/ugcampus/grouphub/internal/app/store/users"
	"github.com/ugcampus/grouphub/internal/app/system/auth"
	"github.com/ugcampus/grouphub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures, *fakeSender) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	users := userstore.New(db)
	pending := pendingstore.New(db)
	tokens := resetstore.New(db)
	sender := &fakeSender{}
	codes := NewCodeManager(pending, sender, "GroupHub", logger)
	resets := NewResetManager(users, tokens, sender, "GroupHub", "https://grouphub.example.edu", logger)

	issuer, err := auth.NewIssuer("test-secret-not-for-production", "HS256", auth.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	h := NewHandler(users, pending, codes, resets, issuer, logger)
	fx := testutil.NewFixtures(t, db)
	return h, fx, sender
}

func postJSON(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSignupRedirectsToVerification(t *testing.T) {
	h, _, sender := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignup(rec, postJSON(t, "/signup", signupRequest{
		FirstName:            "Dana",
		LastName:             "Booker",
		Email:                "Dana.Booker@Example.EDU",
		Password:             "s3cret-enough",
		PasswordConfirmation: "s3cret-enough",
		UserType:             "student",
		Division:             "Engineering",
	}))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	resp := decodeBody[redirectResponse](t, rec)
	if resp.RedirectPath != VerifyEmailPath {
		t.Fatalf("redirectPath = %q, want %q", resp.RedirectPath, VerifyEmailPath)
	}
	if resp.Email != "dana.booker@example.edu" {
		t.Fatalf("email = %q, want normalized", resp.Email)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(sender.sent))
	}
}

func TestSignupConflictsWithVerifiedUser(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx.CreateUser(ctx, "Dana", "Booker", "dana@example.edu")

	rec := httptest.NewRecorder()
	h.HandleSignup(rec, postJSON(t, "/signup", signupRequest{
		FirstName:            "Dana",
		LastName:             "Booker",
		Email:                "dana@example.edu",
		Password:             "s3cret-enough",
		PasswordConfirmation: "s3cret-enough",
	}))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeBody[api.ErrorResponse](t, rec)
	if resp.Error.Kind != api.KindConflict {
		t.Fatalf("kind = %q, want conflict", resp.Error.Kind)
	}
}

func TestSignupPasswordMismatch(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignup(rec, postJSON(t, "/signup", signupRequest{
		FirstName:            "Dana",
		LastName:             "Booker",
		Email:                "dana@example.edu",
		Password:             "one",
		PasswordConfirmation: "other",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeBody[api.ErrorResponse](t, rec)
	if resp.Error.Kind != api.KindValidationFailed {
		t.Fatalf("kind = %q, want validation_failed", resp.Error.Kind)
	}
}

func TestSignupTakenEmailWinsOverPasswordMismatch(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx.CreateUser(ctx, "Dana", "Booker", "dana@example.edu")

	rec := httptest.NewRecorder()
	h.HandleSignup(rec, postJSON(t, "/signup", signupRequest{
		FirstName:            "Dana",
		LastName:             "Booker",
		Email:                "dana@example.edu",
		Password:             "one",
		PasswordConfirmation: "other",
	}))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeBody[api.ErrorResponse](t, rec)
	if resp.Error.Kind != api.KindConflict {
		t.Fatalf("kind = %q, want conflict", resp.Error.Kind)
	}
}

func TestSignupSupersedesPriorDraft(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx.CreatePendingUser(ctx, "dana@example.edu", "OldCod", time.Now().Add(-10*time.Minute))

	rec := httptest.NewRecorder()
	h.HandleSignup(rec, postJSON(t, "/signup", signupRequest{
		FirstName:            "Dee",
		LastName:             "Booker",
		Email:                "dana@example.edu",
		Password:             "s3cret-enough",
		PasswordConfirmation: "s3cret-enough",
	}))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}

	draft, err := h.Pending.GetByEmail(ctx, "dana@example.edu")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if draft.FirstName != "Dee" {
		t.Fatalf("draft first name = %q, want Dee", draft.FirstName)
	}
	if draft.Verification.Code != nil && *draft.Verification.Code == "OldCod" {
		t.Fatal("old draft's code should not survive")
	}
}

func TestVerifyEmailPromotesAndSignsIn(t *testing.T) {
	h, _, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)

	rec := httptest.NewRecorder()
	h.HandleSignup(rec, postJSON(t, "/signup", signupRequest{
		FirstName:            "Dana",
		LastName:             "Booker",
		Email:                "dana@example.edu",
		Password:             "s3cret-enough",
		PasswordConfirmation: "s3cret-enough",
		UserType:             "student",
		Division:             "Engineering",
	}))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("signup status = %d", rec.Code)
	}

	draft, err := h.Pending.GetByEmail(ctx, "dana@example.edu")
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	code := *draft.Verification.Code

	rec = httptest.NewRecorder()
	h.HandleVerifyEmail(rec, postJSON(t, "/verify-email", verifyEmailRequest{
		Email: "dana@example.edu",
		Code:  code,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	token := decodeBody[auth.Token](t, rec)
	if token.AccessToken == "" || token.TokenType != "bearer" {
		t.Fatalf("token = %+v", token)
	}

	// The draft is gone and the account is live.
	if _, err := h.Pending.GetByEmail(ctx, "dana@example.edu"); err == nil {
		t.Fatal("draft should be deleted after promotion")
	}
	user, err := h.Users.GetByEmail(ctx, "dana@example.edu")
	if err != nil {
		t.Fatalf("user lookup: %v", err)
	}
	if !auth.CheckPassword("s3cret-enough", user.Password) {
		t.Fatal("promoted user's digest does not match signup password")
	}

	// And the password now signs in.
	rec = httptest.NewRecorder()
	h.HandleSignin(rec, postJSON(t, "/signin", signinRequest{
		Email:    "dana@example.edu",
		Password: "s3cret-enough",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("signin status = %d, want 200", rec.Code)
	}
}

func TestVerifyEmailWrongCode(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx.CreatePendingUser(ctx, "dana@example.edu", "Ab3xYz", time.Now())

	rec := httptest.NewRecorder()
	h.HandleVerifyEmail(rec, postJSON(t, "/verify-email", verifyEmailRequest{
		Email: "dana@example.edu",
		Code:  "wrong1",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx.CreatePendingUser(ctx, "dana@example.edu", "Ab3xYz", time.Now().Add(-ResendWindow-time.Minute))

	rec := httptest.NewRecorder()
	h.HandleVerifyEmail(rec, postJSON(t, "/verify-email", verifyEmailRequest{
		Email: "dana@example.edu",
		Code:  "Ab3xYz",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeBody[api.ErrorResponse](t, rec)
	if resp.Error.Kind != api.KindExpired {
		t.Fatalf("kind = %q, want expired", resp.Error.Kind)
	}
}

func TestVerifyEmailNoDraft(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleVerifyEmail(rec, postJSON(t, "/verify-email", verifyEmailRequest{
		Email: "nobody@example.edu",
		Code:  "Ab3xYz",
	}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestResendCodeTooSoon(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx.CreatePendingUser(ctx, "dana@example.edu", "Ab3xYz", time.Now())

	req := httptest.NewRequest("GET", "/resend-verification-code?email=dana@example.edu", nil)
	rec := httptest.NewRecorder()
	h.HandleResendCode(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeBody[api.ErrorResponse](t, rec)
	if resp.Error.Kind != api.KindRateLimited {
		t.Fatalf("kind = %q, want rate_limited", resp.Error.Kind)
	}
	if resp.Error.AvailableAt == nil {
		t.Fatal("rate_limited error should carry availableAt")
	}
}

func TestResendCodeAfterWindow(t *testing.T) {
	h, fx, sender := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx.CreatePendingUser(ctx, "dana@example.edu", "Ab3xYz", time.Now().Add(-ResendWindow-time.Minute))

	req := httptest.NewRequest("GET", "/resend-verification-code?email=dana@example.edu", nil)
	rec := httptest.NewRecorder()
	h.HandleResendCode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(sender.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(sender.sent))
	}
}

func TestSigninWrongPassword(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx.CreateUser(ctx, "Dana", "Booker", "dana@example.edu")

	rec := httptest.NewRecorder()
	h.HandleSignin(rec, postJSON(t, "/signin", signinRequest{
		Email:    "dana@example.edu",
		Password: "not-the-password",
	}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSigninPendingDraftRedirects(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)
	fx.CreatePendingUser(ctx, "dana@example.edu", "Ab3xYz", time.Now())

	rec := httptest.NewRecorder()
	h.HandleSignin(rec, postJSON(t, "/signin", signinRequest{
		Email:    "dana@example.edu",
		Password: "whatever",
	}))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	resp := decodeBody[redirectResponse](t, rec)
	if resp.RedirectPath != VerifyEmailPath {
		t.Fatalf("redirectPath = %q", resp.RedirectPath)
	}
}

func TestSigninUnknownEmail(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignin(rec, postJSON(t, "/signin", signinRequest{
		Email:    "nobody@example.edu",
		Password: "whatever",
	}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRequestAndResetPassword(t *testing.T) {
	h, _, sender := newTestHandler(t)
	ctx := testutil.TestContext(t)

	// Establish a verified account through the real flow.
	rec := httptest.NewRecorder()
	h.HandleSignup(rec, postJSON(t, "/signup", signupRequest{
		FirstName:            "Dana",
		LastName:             "Booker",
		Email:                "dana@example.edu",
		Password:             "original-pass",
		PasswordConfirmation: "original-pass",
	}))
	draft, err := h.Pending.GetByEmail(ctx, "dana@example.edu")
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	rec = httptest.NewRecorder()
	h.HandleVerifyEmail(rec, postJSON(t, "/verify-email", verifyEmailRequest{
		Email: "dana@example.edu",
		Code:  *draft.Verification.Code,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleRequestPasswordReset(rec, postJSON(t, "/request-password-reset", requestResetRequest{
		Email: "dana@example.edu",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("request-reset status = %d: %s", rec.Code, rec.Body.String())
	}

	tok, err := h.Resets.tokens.GetByEmail(ctx, "dana@example.edu")
	if err != nil {
		t.Fatalf("token lookup: %v", err)
	}

	rec = httptest.NewRecorder()
	h.HandleResetPassword(rec, postJSON(t, "/reset-password", resetPasswordRequest{
		Token:                tok.Value,
		Password:             "replacement-pass",
		PasswordConfirmation: "replacement-pass",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", rec.Code, rec.Body.String())
	}

	// Old password out, new password in.
	rec = httptest.NewRecorder()
	h.HandleSignin(rec, postJSON(t, "/signin", signinRequest{Email: "dana@example.edu", Password: "original-pass"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old password status = %d, want 401", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.HandleSignin(rec, postJSON(t, "/signin", signinRequest{Email: "dana@example.edu", Password: "replacement-pass"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("new password status = %d, want 200", rec.Code)
	}

	if len(sender.sent) < 2 {
		t.Fatalf("emails sent = %d, want at least signup code + reset link", len(sender.sent))
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleRequestPasswordReset(rec, postJSON(t, "/request-password-reset", requestResetRequest{
		Email: "nobody@example.edu",
	}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
