package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/internal/notifications"
	"github.com/oja-market/oja-backend/internal/offers"
	pkgAuth "github.com/oja-market/oja-backend/pkg/auth"
	"github.com/oja-market/oja-backend/pkg/config"
	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/logger"
	"github.com/oja-market/oja-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOffersService struct{}

func (stubOffersService) Create(context.Context, offers.CreateInput) (*offers.View, error) {
	return &offers.View{}, nil
}

func (stubOffersService) Get(context.Context, uuid.UUID, uuid.UUID) (*offers.View, error) {
	return &offers.View{}, nil
}

func (stubOffersService) Accept(context.Context, offers.AcceptInput) (*offers.AcceptOutcome, error) {
	return &offers.AcceptOutcome{}, nil
}

func (stubOffersService) Reject(context.Context, offers.RejectInput) (*models.Offer, error) {
	return &models.Offer{}, nil
}

func (stubOffersService) Withdraw(context.Context, offers.WithdrawInput) (*models.Offer, error) {
	return &models.Offer{}, nil
}

func (stubOffersService) Counter(context.Context, offers.CounterInput) (*offers.CounterOutcome, error) {
	return &offers.CounterOutcome{}, nil
}

func (stubOffersService) GetChain(context.Context, uuid.UUID, uuid.UUID) ([]offers.ChainEntry, error) {
	return nil, nil
}

func (stubOffersService) Suggestions(context.Context, uuid.UUID, uuid.UUID) (*offers.SuggestionsResult, error) {
	return &offers.SuggestionsResult{}, nil
}

func (stubOffersService) List(context.Context, offers.ListParams) (*offers.ListResult, error) {
	return &offers.ListResult{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func newTestRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	handler := NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubOffersService{},
		stubNotificationsService{},
	)
	return handler, cfg.JWT
}

func mintToken(t *testing.T, cfg config.JWTConfig) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthLive(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Oja-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	handler, _ := newTestRouter(t)
	targets := []string{
		"/api/v1/offers",
		"/api/v1/offers/" + uuid.NewString(),
		"/api/v1/notifications",
	}
	for _, target := range targets {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", target, resp.Code)
		}
	}
}

func TestRouterAuthedGetRoutes(t *testing.T) {
	handler, jwtCfg := newTestRouter(t)
	token := mintToken(t, jwtCfg)

	targets := []string{
		"/api/v1/offers?role=buyer",
		"/api/v1/offers/" + uuid.NewString(),
		"/api/v1/offers/" + uuid.NewString() + "/chain",
		"/api/v1/offers/" + uuid.NewString() + "/suggestions",
		"/api/v1/notifications",
	}
	for _, target := range targets {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d body %s", target, resp.Code, resp.Body.String())
		}
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	handler, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound && resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 404 or 401 got %d", resp.Code)
	}
}
