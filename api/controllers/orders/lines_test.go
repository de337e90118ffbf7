package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/garagehub/procurement-backend/api/middleware"
	"github.com/garagehub/procurement-backend/internal/catalog"
	"github.com/garagehub/procurement-backend/internal/purchaseorders"
	"github.com/garagehub/procurement-backend/pkg/pagination"
	"github.com/garagehub/procurement-backend/pkg/types"
)

type stubOrderService struct {
	addLineFn    func(ctx context.Context, input purchaseorders.AddLineInput) (*purchaseorders.LineResult, error)
	updateLineFn func(ctx context.Context, input purchaseorders.UpdateLineQuantityInput) (*purchaseorders.LineResult, error)
	removeLineFn func(ctx context.Context, input purchaseorders.RemoveLineInput) (*purchaseorders.LineResult, error)
}

func (s stubOrderService) CreateOrder(context.Context, purchaseorders.CreateOrderInput) (*purchaseorders.OrderDTO, error) {
	panic("unexpected CreateOrder call")
}

func (s stubOrderService) AddLine(ctx context.Context, input purchaseorders.AddLineInput) (*purchaseorders.LineResult, error) {
	if s.addLineFn == nil {
		panic("unexpected AddLine call")
	}
	return s.addLineFn(ctx, input)
}

func (s stubOrderService) UpdateLineQuantity(ctx context.Context, input purchaseorders.UpdateLineQuantityInput) (*purchaseorders.LineResult, error) {
	if s.updateLineFn == nil {
		panic("unexpected UpdateLineQuantity call")
	}
	return s.updateLineFn(ctx, input)
}

func (s stubOrderService) RemoveLine(ctx context.Context, input purchaseorders.RemoveLineInput) (*purchaseorders.LineResult, error) {
	if s.removeLineFn == nil {
		panic("unexpected RemoveLine call")
	}
	return s.removeLineFn(ctx, input)
}

func (s stubOrderService) GetOrder(context.Context, int64) (*purchaseorders.OrderDTO, error) {
	panic("unexpected GetOrder call")
}

func (s stubOrderService) ListOrders(context.Context, pagination.Params, purchaseorders.ListFilters) (*purchaseorders.OrderList, error) {
	panic("unexpected ListOrders call")
}

func (s stubOrderService) Ship(context.Context, purchaseorders.TransitionInput) (*purchaseorders.OrderDTO, error) {
	panic("unexpected Ship call")
}

func (s stubOrderService) Deliver(context.Context, purchaseorders.TransitionInput) (*purchaseorders.DeliveryResult, error) {
	panic("unexpected Deliver call")
}

func (s stubOrderService) Cancel(context.Context, purchaseorders.TransitionInput) (*purchaseorders.OrderDTO, error) {
	panic("unexpected Cancel call")
}

func lineRequest(method, body string, actorID int64, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if actorID > 0 {
		ctx = middleware.WithActorID(ctx, actorID)
	}
	return req.WithContext(ctx)
}

func decodeLineResult(t *testing.T, resp *httptest.ResponseRecorder) purchaseorders.LineResult {
	t.Helper()
	var envelope struct {
		Data purchaseorders.LineResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestAddLineReturnsCreated(t *testing.T) {
	var captured purchaseorders.AddLineInput
	stub := stubOrderService{
		addLineFn: func(ctx context.Context, input purchaseorders.AddLineInput) (*purchaseorders.LineResult, error) {
			captured = input
			return &purchaseorders.LineResult{
				OrderID:      input.OrderID,
				Line:         &purchaseorders.LineDTO{ID: 40, OrderID: input.OrderID, Qty: input.Qty, UnitPriceCents: 1250, SubtotalCents: 2500},
				TotalCents:   2500,
				Total:        "25.00",
				AvailableQty: 8,
			}, nil
		},
	}

	handler := AddLine(stub, nil)
	req := lineRequest(http.MethodPost, `{"catalog_item_id":3,"qty":2}`, 7, map[string]string{"orderId": "11"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.OrderID != 11 || captured.CatalogItemID != 3 || captured.Qty != 2 || captured.ActorID != 7 {
		t.Fatalf("unexpected add line input %+v", captured)
	}
}

func TestUpdateLineChangesQuantity(t *testing.T) {
	var captured purchaseorders.UpdateLineQuantityInput
	stub := stubOrderService{
		updateLineFn: func(ctx context.Context, input purchaseorders.UpdateLineQuantityInput) (*purchaseorders.LineResult, error) {
			captured = input
			return &purchaseorders.LineResult{
				OrderID:      11,
				Line:         &purchaseorders.LineDTO{ID: input.LineID, OrderID: 11, Qty: input.Qty, UnitPriceCents: 1250, SubtotalCents: 6250},
				TotalCents:   6250,
				Total:        "62.50",
				AvailableQty: 5,
			}, nil
		},
	}

	handler := UpdateLine(stub, nil)
	req := lineRequest(http.MethodPut, `{"qty":5}`, 7, map[string]string{"orderId": "11", "lineId": "40"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.LineID != 40 || captured.Qty != 5 || captured.ActorID != 7 {
		t.Fatalf("unexpected update input %+v", captured)
	}
	result := decodeLineResult(t, resp)
	if result.TotalCents != 6250 || result.Line == nil || result.Line.Qty != 5 || result.AvailableQty != 5 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestUpdateLineRejectsNonPositiveQuantity(t *testing.T) {
	handler := UpdateLine(stubOrderService{}, nil)
	req := lineRequest(http.MethodPut, `{"qty":0}`, 7, map[string]string{"orderId": "11", "lineId": "40"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUpdateLineSurfacesInsufficientStock(t *testing.T) {
	stub := stubOrderService{
		updateLineFn: func(ctx context.Context, input purchaseorders.UpdateLineQuantityInput) (*purchaseorders.LineResult, error) {
			return nil, catalog.ErrInsufficientStock
		},
	}

	handler := UpdateLine(stub, nil)
	req := lineRequest(http.MethodPut, `{"qty":500}`, 7, map[string]string{"orderId": "11", "lineId": "40"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if envelope.Error.Reason != string(catalog.ReasonInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %+v", envelope.Error)
	}
}

func TestRemoveLineReturnsRecomputedTotal(t *testing.T) {
	var captured purchaseorders.RemoveLineInput
	stub := stubOrderService{
		removeLineFn: func(ctx context.Context, input purchaseorders.RemoveLineInput) (*purchaseorders.LineResult, error) {
			captured = input
			return &purchaseorders.LineResult{OrderID: 11, TotalCents: 0, Total: "0.00", AvailableQty: 10}, nil
		},
	}

	handler := RemoveLine(stub, nil)
	req := lineRequest(http.MethodDelete, "", 7, map[string]string{"orderId": "11", "lineId": "40"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.LineID != 40 || captured.ActorID != 7 {
		t.Fatalf("unexpected remove input %+v", captured)
	}
	result := decodeLineResult(t, resp)
	if result.Line != nil || result.TotalCents != 0 || result.AvailableQty != 10 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRemoveLineMissingLineIsNotFound(t *testing.T) {
	stub := stubOrderService{
		removeLineFn: func(ctx context.Context, input purchaseorders.RemoveLineInput) (*purchaseorders.LineResult, error) {
			return nil, purchaseorders.ErrLineNotFound
		},
	}

	handler := RemoveLine(stub, nil)
	req := lineRequest(http.MethodDelete, "", 7, map[string]string{"orderId": "11", "lineId": "99"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestRemoveLineRequiresActor(t *testing.T) {
	handler := RemoveLine(stubOrderService{}, nil)
	req := lineRequest(http.MethodDelete, "", 0, map[string]string{"orderId": "11", "lineId": "40"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
