package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campus-verify/pkg/account"
	"github.com/campuslink/campus-verify/pkg/gate"
	"github.com/campuslink/campus-verify/pkg/verifytoken"
)

type sentNotice struct {
	To    string
	Token string
}

type recordingNotices struct {
	Verifications []sentNotice
	Resets        []sentNotice
}

func (r *recordingNotices) SendVerificationEmail(to, token string, ttl time.Duration) error {
	r.Verifications = append(r.Verifications, sentNotice{To: to, Token: token})
	return nil
}

func (r *recordingNotices) SendPasswordResetEmail(to, token string, ttl time.Duration) error {
	r.Resets = append(r.Resets, sentNotice{To: to, Token: token})
	return nil
}

type apiFixture struct {
	router   *chi.Mux
	accounts *account.FileAccountRepository
	notices  *recordingNotices
	jwtAuth  *jwtauth.JWTAuth
}

func setupAPI(t *testing.T) *apiFixture {
	tempDir := filepath.Join(os.TempDir(), "gate-api-test-"+uuid.New().String())
	require.NoError(t, os.MkdirAll(tempDir, 0755))
	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	tokenRepo, err := verifytoken.NewFileTokenRepository(filepath.Join(tempDir, "tokens"))
	require.NoError(t, err)

	accounts, err := account.NewFileAccountRepository(filepath.Join(tempDir, "accounts"))
	require.NoError(t, err)

	notices := &recordingNotices{}
	tokens := verifytoken.NewTokenService(tokenRepo)
	service := gate.NewGateService(tokens, accounts, notices)

	jwtAuth := jwtauth.New("HS256", []byte("test-signing-secret"), nil)

	router := chi.NewRouter()
	Routes(router, NewHandler(service), jwtAuth)

	return &apiFixture{router: router, accounts: accounts, notices: notices, jwtAuth: jwtAuth}
}

func (f *apiFixture) newAccount(t *testing.T, email string) *account.Account {
	a, err := f.accounts.CreateAccount(context.Background(), email)
	require.NoError(t, err)
	return a
}

func (f *apiFixture) bearerFor(t *testing.T, accountID uuid.UUID) string {
	_, tokenString, err := f.jwtAuth.Encode(map[string]interface{}{
		"sub": accountID.String(),
	})
	require.NoError(t, err)
	return "BEARER " + tokenString
}

func (f *apiFixture) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestCheckInteractionEndpoint(t *testing.T) {
	f := setupAPI(t)
	a := f.newAccount(t, "a@x.edu")
	bearer := f.bearerFor(t, a.ID)

	t.Run("DeniedWithRemediation", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/check", bearer, CheckRequest{Interaction: "publish_post"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp CheckResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Allowed)
		assert.True(t, resp.RequiresEmailVerification)
		assert.NotEmpty(t, resp.Message)
	})

	t.Run("ViewingAllowed", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/check", bearer, CheckRequest{Interaction: "view_content"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp CheckResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Allowed)
	})

	t.Run("UnknownInteraction", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/check", bearer, CheckRequest{Interaction: "launch_rocket"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("NoToken", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/check", "", CheckRequest{Interaction: "comment"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestEmailVerificationEndpoints(t *testing.T) {
	f := setupAPI(t)
	a := f.newAccount(t, "a@x.edu")
	bearer := f.bearerFor(t, a.ID)

	rec := f.do(t, http.MethodPost, "/api/verify/email-verification/send", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.notices.Verifications, 1)

	rec = f.do(t, http.MethodPost, "/api/verify/email-verification/confirm", "",
		ConfirmEmailRequest{Token: f.notices.Verifications[0].Token})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("SecondConfirmRejected", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/email-verification/confirm", "",
			ConfirmEmailRequest{Token: f.notices.Verifications[0].Token})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ResendAfterVerified", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/email-verification/send", bearer, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ForgedToken", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/email-verification/confirm", "",
			ConfirmEmailRequest{Token: "not-a-real-token"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, msgTokenInvalid, resp.Error)
	})

	t.Run("MissingToken", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/email-verification/confirm", "",
			ConfirmEmailRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	f := setupAPI(t)
	f.newAccount(t, "a@x.edu")

	rec := f.do(t, http.MethodPost, "/api/verify/password-reset/send", "",
		StartPasswordResetRequest{Email: "a@x.edu"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.notices.Resets, 1)

	rec = f.do(t, http.MethodPost, "/api/verify/password-reset/confirm", "",
		ConfirmPasswordResetRequest{Token: f.notices.Resets[0].Token, NewPassword: "new-password-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("ConsumedToken", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/password-reset/confirm", "",
			ConfirmPasswordResetRequest{Token: f.notices.Resets[0].Token, NewPassword: "new-password-2"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownEmailSameAnswer", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/password-reset/send", "",
			StartPasswordResetRequest{Email: "nobody@x.edu"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, f.notices.Resets, 1)
	})

	t.Run("MissingPassword", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/verify/password-reset/confirm", "",
			ConfirmPasswordResetRequest{Token: "whatever"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUsernameAndStatusEndpoints(t *testing.T) {
	f := setupAPI(t)
	a := f.newAccount(t, "a@x.edu")
	b := f.newAccount(t, "b@x.edu")
	bearerA := f.bearerFor(t, a.ID)
	bearerB := f.bearerFor(t, b.ID)

	rec := f.do(t, http.MethodPut, "/api/verify/username", bearerA, ClaimUsernameRequest{Username: "wildcat_24"})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("DuplicateUsername", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/verify/username", bearerB, ClaimUsernameRequest{Username: "wildcat_24"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("BadFormat", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/verify/username", bearerB, ClaimUsernameRequest{Username: "no spaces"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Status", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/verify/status", bearerA, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.EmailVerified)
		assert.True(t, resp.HasUsername)
		assert.Equal(t, "not_verified", resp.State)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/verify/status", f.bearerFor(t, uuid.New()), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
