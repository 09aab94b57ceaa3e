package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/roadrunner/api-go/services"
	"github.com/roadrunner/api-go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	users     map[string]string // identifier -> password
	refreshOK string
	logoutErr error

	registered services.RegisterInput
	loggedOut  string
}

func (f *fakeAuth) Register(_ context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	f.registered = in
	if len(in.Password) < 8 {
		return nil, services.FieldError("password", "This password is too short. It must contain at least 8 characters.")
	}
	return &services.AuthResult{
		Tokens: utils.TokenPair{Access: "a", Refresh: "r"},
		User:   services.UserSummary{ID: 1, Username: in.Username, Email: in.Email},
	}, nil
}

func (f *fakeAuth) Login(_ context.Context, identifier, password string) (*services.AuthResult, error) {
	if pw, ok := f.users[identifier]; !ok || pw != password {
		return nil, services.ErrInvalidCredentials
	}
	return &services.AuthResult{Tokens: utils.TokenPair{Access: "a", Refresh: "r"}}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, token string) (string, error) {
	if token != f.refreshOK {
		return "", services.ErrInvalidToken
	}
	return "new-access", nil
}

func (f *fakeAuth) Logout(_ context.Context, _ uint, token string) error {
	f.loggedOut = token
	return f.logoutErr
}

func (f *fakeAuth) GoogleSignIn(_ context.Context, in services.GoogleInput) (*services.AuthResult, error) {
	if in.IDToken == "" && in.Code == "" {
		return nil, services.BadRequest("id_token or code is required")
	}
	return &services.AuthResult{}, nil
}

func newAuthRouter(auth *fakeAuth) http.Handler {
	ac := NewAuthController(auth, zap.NewNop())
	r := newRouter()
	r.POST("/register", ac.Register)
	r.POST("/login", ac.Login)
	r.POST("/token/refresh", ac.RefreshToken)
	r.POST("/logout", ac.Logout)
	r.POST("/auth/google", ac.GoogleLogin)
	return r
}

func TestRegisterCreated(t *testing.T) {
	auth := &fakeAuth{}
	w := doJSON(t, newAuthRouter(auth), http.MethodPost, "/register", map[string]string{
		"username":        "alice",
		"email":           "alice@example.com",
		"password":        "correct-horse",
		"repeat_password": "correct-horse",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Registration successful", body["message"])
	assert.Equal(t, map[string]interface{}{"access": "a", "refresh": "r"}, body["tokens"])
	assert.Equal(t, "alice", auth.registered.Username)
}

func TestRegisterReportsPasswordErrors(t *testing.T) {
	w := doJSON(t, newAuthRouter(&fakeAuth{}), http.MethodPost, "/register", map[string]string{
		"username":        "alice",
		"email":           "alice@example.com",
		"password":        "abc",
		"repeat_password": "abc",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "password")
}

func TestRegisterBindingErrorsUseJSONNames(t *testing.T) {
	w := doJSON(t, newAuthRouter(&fakeAuth{}), http.MethodPost, "/register", map[string]string{
		"username": "alice",
		"email":    "not-an-email",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Enter a valid email address."}, fields["email"])
	assert.Equal(t, []interface{}{"This field is required."}, fields["password"])
	assert.Equal(t, []interface{}{"This field is required."}, fields["repeat_password"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	r := newAuthRouter(&fakeAuth{users: map[string]string{"alice": "correct-horse"}})

	unknown := doJSON(t, r, http.MethodPost, "/login", map[string]string{"identifier": "bob", "password": "x"})
	wrong := doJSON(t, r, http.MethodPost, "/login", map[string]string{"identifier": "alice", "password": "x"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.Bytes(), wrong.Body.Bytes())
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, wrong.Body.String())

	ok := doJSON(t, r, http.MethodPost, "/login", map[string]string{"identifier": "alice", "password": "correct-horse"})
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestRefreshToken(t *testing.T) {
	r := newAuthRouter(&fakeAuth{refreshOK: "good"})

	w := doJSON(t, r, http.MethodPost, "/token/refresh", map[string]string{"refresh": "good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"access":"new-access"}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/token/refresh", map[string]string{"refresh": "revoked"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	auth := &fakeAuth{}
	w := doJSON(t, newAuthRouter(auth), http.MethodPost, "/logout", map[string]string{"refresh_token": "r"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r", auth.loggedOut)

	auth.logoutErr = services.BadRequest("Invalid refresh token")
	w = doJSON(t, newAuthRouter(auth), http.MethodPost, "/logout", map[string]string{"refresh_token": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid refresh token"}`, w.Body.String())
}

func TestGoogleLoginNeedsCredential(t *testing.T) {
	w := doJSON(t, newAuthRouter(&fakeAuth{}), http.MethodPost, "/auth/google", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
