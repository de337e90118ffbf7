package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/garagehub/procurement-backend/api/middleware"
	internalpayments "github.com/garagehub/procurement-backend/internal/payments"
	"github.com/garagehub/procurement-backend/pkg/enums"
	"github.com/garagehub/procurement-backend/pkg/types"
)

type stubPaymentService struct {
	payFn     func(ctx context.Context, input internalpayments.PayInput) (*internalpayments.PaymentResult, error)
	submitFn  func(ctx context.Context, input internalpayments.PayInput) (*internalpayments.PaymentResult, error)
	approveFn func(ctx context.Context, input internalpayments.ApproveInput) (*internalpayments.PaymentResult, error)
	rejectFn  func(ctx context.Context, input internalpayments.RejectInput) (*internalpayments.PaymentResult, error)
	getFn     func(ctx context.Context, id int64) (*internalpayments.PaymentDTO, error)
}

func (s stubPaymentService) Pay(ctx context.Context, input internalpayments.PayInput) (*internalpayments.PaymentResult, error) {
	if s.payFn == nil {
		panic("unexpected Pay call")
	}
	return s.payFn(ctx, input)
}

func (s stubPaymentService) Submit(ctx context.Context, input internalpayments.PayInput) (*internalpayments.PaymentResult, error) {
	if s.submitFn == nil {
		panic("unexpected Submit call")
	}
	return s.submitFn(ctx, input)
}

func (s stubPaymentService) Approve(ctx context.Context, input internalpayments.ApproveInput) (*internalpayments.PaymentResult, error) {
	if s.approveFn == nil {
		panic("unexpected Approve call")
	}
	return s.approveFn(ctx, input)
}

func (s stubPaymentService) Reject(ctx context.Context, input internalpayments.RejectInput) (*internalpayments.PaymentResult, error) {
	if s.rejectFn == nil {
		panic("unexpected Reject call")
	}
	return s.rejectFn(ctx, input)
}

func (s stubPaymentService) Get(ctx context.Context, id int64) (*internalpayments.PaymentDTO, error) {
	if s.getFn == nil {
		panic("unexpected Get call")
	}
	return s.getFn(ctx, id)
}

func newRequest(method, body, param, value string, actorID int64) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if actorID > 0 {
		ctx = middleware.WithActorID(ctx, actorID)
	}
	return req.WithContext(ctx)
}

func decodeResult(t *testing.T, resp *httptest.ResponseRecorder) internalpayments.PaymentResult {
	t.Helper()
	var envelope struct {
		Data internalpayments.PaymentResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return envelope.Error
}

func TestPayDeferredSubmitsPendingPayment(t *testing.T) {
	var captured internalpayments.PayInput
	stub := stubPaymentService{
		submitFn: func(ctx context.Context, input internalpayments.PayInput) (*internalpayments.PaymentResult, error) {
			captured = input
			return &internalpayments.PaymentResult{
				Payment:    internalpayments.PaymentDTO{ID: 5, OrderID: input.OrderID, Status: enums.PaymentStatusPending},
				OrderState: enums.OrderStatePending,
			}, nil
		},
	}

	handler := Pay(stub, nil)
	req := newRequest(http.MethodPost, `{"method":"bank_transfer","verification":"deferred"}`, "orderId", "12", 7)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.OrderID != 12 || captured.ActorID != 7 || captured.Method != enums.PaymentMethodBankTransfer {
		t.Fatalf("unexpected submit input %+v", captured)
	}
	result := decodeResult(t, resp)
	if result.Payment.Status != enums.PaymentStatusPending || result.OrderState != enums.OrderStatePending {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPayDefaultsToInstantVerification(t *testing.T) {
	called := false
	stub := stubPaymentService{
		payFn: func(ctx context.Context, input internalpayments.PayInput) (*internalpayments.PaymentResult, error) {
			called = true
			return &internalpayments.PaymentResult{
				Payment:    internalpayments.PaymentDTO{ID: 6, OrderID: input.OrderID, Status: enums.PaymentStatusPaid},
				OrderState: enums.OrderStateConfirmed,
			}, nil
		},
	}

	handler := Pay(stub, nil)
	req := newRequest(http.MethodPost, `{"method":"cash"}`, "orderId", "12", 7)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatalf("expected instant payment path")
	}
}

func TestPayRejectsUnknownVerification(t *testing.T) {
	handler := Pay(stubPaymentService{}, nil)
	req := newRequest(http.MethodPost, `{"method":"cash","verification":"later"}`, "orderId", "12", 7)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPayRequiresActor(t *testing.T) {
	handler := Pay(stubPaymentService{}, nil)
	req := newRequest(http.MethodPost, `{"method":"cash"}`, "orderId", "12", 0)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestResolveApproveReturnsOrderState(t *testing.T) {
	var captured internalpayments.ApproveInput
	stub := stubPaymentService{
		approveFn: func(ctx context.Context, input internalpayments.ApproveInput) (*internalpayments.PaymentResult, error) {
			captured = input
			return &internalpayments.PaymentResult{
				Payment:    internalpayments.PaymentDTO{ID: input.PaymentID, Status: enums.PaymentStatusPaid},
				OrderState: enums.OrderStateConfirmed,
			}, nil
		},
	}

	handler := Resolve(stub, nil)
	req := newRequest(http.MethodPost, `{"decision":"approve","reference":"wire-881"}`, "paymentId", "5", 9)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.PaymentID != 5 || captured.ActorID != 9 || captured.Reference == nil || *captured.Reference != "wire-881" {
		t.Fatalf("unexpected approve input %+v", captured)
	}
	if result := decodeResult(t, resp); result.OrderState != enums.OrderStateConfirmed {
		t.Fatalf("expected confirmed order state, got %s", result.OrderState)
	}
}

func TestResolveApproveTwiceIsBusinessRuleViolation(t *testing.T) {
	stub := stubPaymentService{
		approveFn: func(ctx context.Context, input internalpayments.ApproveInput) (*internalpayments.PaymentResult, error) {
			return nil, internalpayments.ErrPaymentAlreadyResolved
		},
	}

	handler := Resolve(stub, nil)
	req := newRequest(http.MethodPost, `{"decision":"approve"}`, "paymentId", "5", 9)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	apiErr := decodeError(t, resp)
	if apiErr.Reason != string(internalpayments.ReasonPaymentAlreadyResolved) {
		t.Fatalf("expected PAYMENT_ALREADY_RESOLVED, got %+v", apiErr)
	}
}

func TestResolveRejectPassesReason(t *testing.T) {
	var captured internalpayments.RejectInput
	stub := stubPaymentService{
		rejectFn: func(ctx context.Context, input internalpayments.RejectInput) (*internalpayments.PaymentResult, error) {
			captured = input
			return &internalpayments.PaymentResult{
				Payment:    internalpayments.PaymentDTO{ID: input.PaymentID, Status: enums.PaymentStatusRejected},
				OrderState: enums.OrderStatePending,
			}, nil
		},
	}

	handler := Resolve(stub, nil)
	req := newRequest(http.MethodPost, `{"decision":"reject","reason":"funds never arrived"}`, "paymentId", "5", 9)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Reason != "funds never arrived" {
		t.Fatalf("unexpected reject input %+v", captured)
	}
	if result := decodeResult(t, resp); result.Payment.Status != enums.PaymentStatusRejected {
		t.Fatalf("expected rejected payment, got %s", result.Payment.Status)
	}
}

func TestResolveRejectsUnknownDecision(t *testing.T) {
	handler := Resolve(stubPaymentService{}, nil)
	req := newRequest(http.MethodPost, `{"decision":"escalate"}`, "paymentId", "5", 9)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if apiErr := decodeError(t, resp); apiErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %+v", apiErr)
	}
}
