package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
)

type stubAuthService struct {
	result      *services.AuthResult
	err         error
	signupInput services.SignupInput
	loginEmail  string
	called      bool
}

func (s *stubAuthService) Signup(_ context.Context, input services.SignupInput) (*services.AuthResult, error) {
	s.called = true
	s.signupInput = input
	return s.result, s.err
}

func (s *stubAuthService) Login(_ context.Context, email string, _ string) (*services.AuthResult, error) {
	s.called = true
	s.loginEmail = email
	return s.result, s.err
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "short password", body: `{"email":"a@b.co","password":"short","full_name":"A","role":"client"}`},
		{name: "bad email", body: `{"email":"nope","password":"longenough","full_name":"A","role":"client"}`},
		{name: "admin role", body: `{"email":"a@b.co","password":"longenough","full_name":"A","role":"admin"}`},
		{name: "missing name", body: `{"email":"a@b.co","password":"longenough","role":"coach"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubAuthService{}
			app := newActorApp("", "")
			app.Post("/signup", NewAuthHandler(service, &stubUserLookup{}).Signup)

			resp := doRequest(t, app, http.MethodPost, "/signup", tt.body)
			expectStatus(t, resp, http.StatusBadRequest)
			if service.called {
				t.Fatal("service must not be called")
			}
		})
	}
}

func TestSignupCreatesAccount(t *testing.T) {
	service := &stubAuthService{
		result: &services.AuthResult{Token: "tok", User: &models.User{ID: 5, Email: "coach@vibe.dev", Role: models.RoleCoach}},
	}
	app := newActorApp("", "")
	app.Post("/signup", NewAuthHandler(service, &stubUserLookup{}).Signup)

	resp := doRequest(t, app, http.MethodPost, "/signup", `{"email":"Coach@Vibe.dev","password":"longenough","full_name":"Kim","role":"coach"}`)
	expectStatus(t, resp, http.StatusCreated)

	if service.signupInput.Role != models.RoleCoach || service.signupInput.FullName != "Kim" {
		t.Fatalf("unexpected input %+v", service.signupInput)
	}

	var body services.AuthResult
	decodeBody(t, resp, &body)
	if body.Token != "tok" || body.User == nil || body.User.ID != 5 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAuthErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "taken", err: services.ErrEmailTaken, status: http.StatusConflict},
		{name: "bad credentials", err: services.ErrInvalidCredentials, status: http.StatusUnauthorized},
		{name: "disabled", err: services.ErrAccountDisabled, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubAuthService{err: tt.err}
			app := newActorApp("", "")
			app.Post("/login", NewAuthHandler(service, &stubUserLookup{}).Login)

			resp := doRequest(t, app, http.MethodPost, "/login", `{"email":"a@b.co","password":"whatever"}`)
			expectStatus(t, resp, tt.status)
		})
	}
}

func TestMeReturnsCurrentUser(t *testing.T) {
	users := &stubUserLookup{user: &models.User{ID: 42, FullName: "Ana", Role: models.RoleClient, IsActive: true}}
	app := newActorApp("42", models.RoleClient)
	app.Get("/me", NewAuthHandler(&stubAuthService{}, users).Me)

	resp := doRequest(t, app, http.MethodGet, "/me", "")
	expectStatus(t, resp, http.StatusOK)

	var body struct {
		User models.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	if body.User.ID != 42 || body.User.FullName != "Ana" {
		t.Fatalf("unexpected user %+v", body.User)
	}

	missing := newActorApp("", "")
	missing.Get("/me", NewAuthHandler(&stubAuthService{}, users).Me)
	resp = doRequest(t, missing, http.MethodGet, "/me", "")
	expectStatus(t, resp, http.StatusUnauthorized)
}
