package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/api/middleware"
	"github.com/oja-market/oja-backend/internal/offers"
	"github.com/oja-market/oja-backend/pkg/db/models"
	pkgerrors "github.com/oja-market/oja-backend/pkg/errors"
	"github.com/oja-market/oja-backend/pkg/logger"
)

type testOffersService struct {
	createFn      func(ctx context.Context, input offers.CreateInput) (*offers.View, error)
	getFn         func(ctx context.Context, offerID, actorUserID uuid.UUID) (*offers.View, error)
	acceptFn      func(ctx context.Context, input offers.AcceptInput) (*offers.AcceptOutcome, error)
	rejectFn      func(ctx context.Context, input offers.RejectInput) (*models.Offer, error)
	withdrawFn    func(ctx context.Context, input offers.WithdrawInput) (*models.Offer, error)
	counterFn     func(ctx context.Context, input offers.CounterInput) (*offers.CounterOutcome, error)
	chainFn       func(ctx context.Context, offerID, actorUserID uuid.UUID) ([]offers.ChainEntry, error)
	suggestionsFn func(ctx context.Context, offerID, actorUserID uuid.UUID) (*offers.SuggestionsResult, error)
	listFn        func(ctx context.Context, params offers.ListParams) (*offers.ListResult, error)
}

func (s *testOffersService) Create(ctx context.Context, input offers.CreateInput) (*offers.View, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &offers.View{}, nil
}

func (s *testOffersService) Get(ctx context.Context, offerID, actorUserID uuid.UUID) (*offers.View, error) {
	if s.getFn != nil {
		return s.getFn(ctx, offerID, actorUserID)
	}
	return &offers.View{}, nil
}

func (s *testOffersService) Accept(ctx context.Context, input offers.AcceptInput) (*offers.AcceptOutcome, error) {
	if s.acceptFn != nil {
		return s.acceptFn(ctx, input)
	}
	return &offers.AcceptOutcome{}, nil
}

func (s *testOffersService) Reject(ctx context.Context, input offers.RejectInput) (*models.Offer, error) {
	if s.rejectFn != nil {
		return s.rejectFn(ctx, input)
	}
	return &models.Offer{}, nil
}

func (s *testOffersService) Withdraw(ctx context.Context, input offers.WithdrawInput) (*models.Offer, error) {
	if s.withdrawFn != nil {
		return s.withdrawFn(ctx, input)
	}
	return &models.Offer{}, nil
}

func (s *testOffersService) Counter(ctx context.Context, input offers.CounterInput) (*offers.CounterOutcome, error) {
	if s.counterFn != nil {
		return s.counterFn(ctx, input)
	}
	return &offers.CounterOutcome{}, nil
}

func (s *testOffersService) GetChain(ctx context.Context, offerID, actorUserID uuid.UUID) ([]offers.ChainEntry, error) {
	if s.chainFn != nil {
		return s.chainFn(ctx, offerID, actorUserID)
	}
	return nil, nil
}

func (s *testOffersService) Suggestions(ctx context.Context, offerID, actorUserID uuid.UUID) (*offers.SuggestionsResult, error) {
	if s.suggestionsFn != nil {
		return s.suggestionsFn(ctx, offerID, actorUserID)
	}
	return &offers.SuggestionsResult{}, nil
}

func (s *testOffersService) List(ctx context.Context, params offers.ListParams) (*offers.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &offers.ListResult{}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func authedRequest(method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func TestCreateOfferSuccess(t *testing.T) {
	buyerID := uuid.New()
	listingID := uuid.New()
	var captured offers.CreateInput
	svc := &testOffersService{
		createFn: func(ctx context.Context, input offers.CreateInput) (*offers.View, error) {
			captured = input
			return &offers.View{}, nil
		},
	}

	body := strings.NewReader(`{"listing_id":"` + listingID.String() + `","amount_cents":15000,"message":"would you take this?"}`)
	req := authedRequest(http.MethodPost, "/api/v1/offers", body, buyerID)
	resp := httptest.NewRecorder()
	CreateOffer(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", resp.Code, resp.Body.String())
	}
	if captured.BuyerID != buyerID {
		t.Fatalf("expected buyer %s got %s", buyerID, captured.BuyerID)
	}
	if captured.ListingID != listingID {
		t.Fatalf("expected listing %s got %s", listingID, captured.ListingID)
	}
	if captured.AmountCents != 15000 {
		t.Fatalf("expected amount 15000 got %d", captured.AmountCents)
	}
	if captured.Message == nil || *captured.Message != "would you take this?" {
		t.Fatal("expected message forwarded")
	}
}

func TestCreateOfferMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	CreateOffer(&testOffersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCreateOfferValidationFailure(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/offers", strings.NewReader(`{"amount_cents":0}`), uuid.New())
	resp := httptest.NewRecorder()
	CreateOffer(&testOffersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestAcceptOfferRoutesActorAndOffer(t *testing.T) {
	userID := uuid.New()
	offerID := uuid.New()
	var captured offers.AcceptInput
	svc := &testOffersService{
		acceptFn: func(ctx context.Context, input offers.AcceptInput) (*offers.AcceptOutcome, error) {
			captured = input
			return &offers.AcceptOutcome{}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/offers/"+offerID.String()+"/accept", nil, userID)
	req = addRouteParam(req, "offerId", offerID.String())
	resp := httptest.NewRecorder()
	AcceptOffer(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.OfferID != offerID || captured.ActorUserID != userID {
		t.Fatal("accept input not forwarded")
	}
}

func TestAcceptOfferInvalidID(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/offers/bogus/accept", nil, uuid.New())
	req = addRouteParam(req, "offerId", "bogus")
	resp := httptest.NewRecorder()
	AcceptOffer(&testOffersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRejectOfferRequiresReason(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/offers/"+uuid.NewString()+"/reject", strings.NewReader(`{}`), uuid.New())
	req = addRouteParam(req, "offerId", uuid.NewString())
	resp := httptest.NewRecorder()
	RejectOffer(&testOffersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRejectOfferForwardsReason(t *testing.T) {
	var captured offers.RejectInput
	svc := &testOffersService{
		rejectFn: func(ctx context.Context, input offers.RejectInput) (*models.Offer, error) {
			captured = input
			return &models.Offer{}, nil
		},
	}
	offerID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/offers/"+offerID.String()+"/reject",
		strings.NewReader(`{"reason":"too_low","message":"sorry"}`), uuid.New())
	req = addRouteParam(req, "offerId", offerID.String())
	resp := httptest.NewRecorder()
	RejectOffer(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if captured.Reason != "too_low" || captured.Message != "sorry" {
		t.Fatalf("reject input not forwarded: %+v", captured)
	}
}

func TestCounterOfferForwardsAmount(t *testing.T) {
	var captured offers.CounterInput
	svc := &testOffersService{
		counterFn: func(ctx context.Context, input offers.CounterInput) (*offers.CounterOutcome, error) {
			captured = input
			return &offers.CounterOutcome{}, nil
		},
	}
	offerID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/offers/"+offerID.String()+"/counter",
		strings.NewReader(`{"amount_cents":18000}`), uuid.New())
	req = addRouteParam(req, "offerId", offerID.String())
	resp := httptest.NewRecorder()
	CounterOffer(svc, testLogger())(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", resp.Code, resp.Body.String())
	}
	if captured.AmountCents != 18000 {
		t.Fatalf("expected amount 18000 got %d", captured.AmountCents)
	}
}

func TestListOffersParsesQuery(t *testing.T) {
	userID := uuid.New()
	listingID := uuid.New()
	var captured offers.ListParams
	svc := &testOffersService{
		listFn: func(ctx context.Context, params offers.ListParams) (*offers.ListResult, error) {
			captured = params
			return &offers.ListResult{}, nil
		},
	}

	target := "/api/v1/offers?role=buyer&status=pending&limit=20&listing_id=" + listingID.String() + "&cursor=abc"
	req := authedRequest(http.MethodGet, target, nil, userID)
	resp := httptest.NewRecorder()
	ListOffers(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if captured.UserID != userID {
		t.Fatal("user id not forwarded")
	}
	if string(captured.Role) != "buyer" {
		t.Fatalf("unexpected role %s", captured.Role)
	}
	if captured.Status == nil || string(*captured.Status) != "pending" {
		t.Fatal("status filter not forwarded")
	}
	if captured.ListingID == nil || *captured.ListingID != listingID {
		t.Fatal("listing filter not forwarded")
	}
	if captured.Limit != 20 {
		t.Fatalf("expected limit 20 got %d", captured.Limit)
	}
	if captured.Cursor != "abc" {
		t.Fatalf("expected cursor abc got %q", captured.Cursor)
	}
}

func TestListOffersRejectsUnknownRole(t *testing.T) {
	req := authedRequest(http.MethodGet, "/api/v1/offers?role=courier", nil, uuid.New())
	resp := httptest.NewRecorder()
	ListOffers(&testOffersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetOfferChainWrapsEntries(t *testing.T) {
	offerID := uuid.New()
	svc := &testOffersService{
		chainFn: func(ctx context.Context, oid, uid uuid.UUID) ([]offers.ChainEntry, error) {
			return []offers.ChainEntry{{Round: 1}, {Round: 2}}, nil
		},
	}
	req := authedRequest(http.MethodGet, "/api/v1/offers/"+offerID.String()+"/chain", nil, uuid.New())
	req = addRouteParam(req, "offerId", offerID.String())
	resp := httptest.NewRecorder()
	GetOfferChain(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Chain []struct {
				Round int `json:"round"`
			} `json:"chain"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Chain) != 2 || envelope.Data.Chain[1].Round != 2 {
		t.Fatalf("unexpected chain payload %s", resp.Body.String())
	}
}

func TestGetOfferSuggestionsForbiddenPassthrough(t *testing.T) {
	svc := &testOffersService{
		suggestionsFn: func(ctx context.Context, oid, uid uuid.UUID) (*offers.SuggestionsResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Offer does not belong to user")
		},
	}
	offerID := uuid.New()
	req := authedRequest(http.MethodGet, "/api/v1/offers/"+offerID.String()+"/suggestions", nil, uuid.New())
	req = addRouteParam(req, "offerId", offerID.String())
	resp := httptest.NewRecorder()
	GetOfferSuggestions(svc, testLogger())(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
