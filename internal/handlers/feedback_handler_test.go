package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
)

type stubFeedbackService struct {
	input     services.SubmitFeedbackInput
	called    bool
	updateErr error
	status    string
}

func (s *stubFeedbackService) Submit(_ context.Context, input services.SubmitFeedbackInput) (*models.Feedback, error) {
	s.called = true
	s.input = input
	return &models.Feedback{ID: 1, Message: input.Message, Status: models.FeedbackOpen}, nil
}

func (s *stubFeedbackService) List(context.Context, int, int) ([]models.Feedback, int, error) {
	return []models.Feedback{}, 0, nil
}

func (s *stubFeedbackService) UpdateStatus(_ context.Context, _ int64, status string) (*models.Feedback, error) {
	s.status = status
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &models.Feedback{ID: 1, Status: status}, nil
}

func TestSubmitFeedbackLinksSignedInUser(t *testing.T) {
	service := &stubFeedbackService{}
	app := newActorApp("42", models.RoleClient)
	app.Post("/feedback", NewFeedbackHandler(service).Submit)

	resp := doRequest(t, app, http.MethodPost, "/feedback", `{"message":"Love the booking flow","page_url":"/bookings"}`)
	expectStatus(t, resp, http.StatusCreated)

	if service.input.UserID == nil || *service.input.UserID != 42 {
		t.Fatalf("expected user 42 to be linked, got %v", service.input.UserID)
	}
	if service.input.UserAgent == nil {
		t.Fatal("user agent should be captured")
	}
}

func TestSubmitFeedbackAnonymousVisitor(t *testing.T) {
	service := &stubFeedbackService{}
	app := newActorApp("", "")
	app.Post("/feedback", NewFeedbackHandler(service).Submit)

	resp := doRequest(t, app, http.MethodPost, "/feedback", `{"message":"hello","is_anonymous":true}`)
	expectStatus(t, resp, http.StatusCreated)
	if service.input.UserID != nil || !service.input.IsAnonymous {
		t.Fatalf("unexpected input %+v", service.input)
	}

	resp = doRequest(t, app, http.MethodPost, "/feedback", `{"message":"","email":"bad"}`)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestUpdateFeedbackStatus(t *testing.T) {
	service := &stubFeedbackService{}
	app := newActorApp("1", models.RoleAdmin)
	app.Put("/feedback/:id/status", NewFeedbackHandler(service).UpdateStatus)

	resp := doRequest(t, app, http.MethodPut, "/feedback/1/status", `{"status":"resolved"}`)
	expectStatus(t, resp, http.StatusOK)
	if service.status != models.FeedbackResolved {
		t.Fatalf("unexpected status %q", service.status)
	}

	service.updateErr = services.ErrInvalidStatus
	resp = doRequest(t, app, http.MethodPut, "/feedback/1/status", `{"status":"done"}`)
	expectStatus(t, resp, http.StatusBadRequest)

	service.updateErr = services.ErrFeedbackNotFound
	resp = doRequest(t, app, http.MethodPut, "/feedback/1/status", `{"status":"open"}`)
	expectStatus(t, resp, http.StatusNotFound)
}
