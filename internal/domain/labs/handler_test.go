package labs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rheumatrack/rheumatrack/internal/platform/auth"
)

func newTestHandler(t *testing.T, numTests int) (*Handler, *echo.Echo, *fixture) {
	t.Helper()
	fx := newFixture(t, numTests)
	return NewHandler(fx.svc), echo.New(), fx
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, uuid.New().String())
	req = req.WithContext(ctx)
	return e.NewContext(req, rec)
}

func TestHandler_CreateOrder(t *testing.T) {
	h, e, fx := newTestHandler(t, 2)
	patientID := uuid.New()

	body := fmt.Sprintf(`{"test_ids": [%q, %q]}`, fx.testIDs[0], fx.testIDs[1])
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec)
	c.SetParamNames("patientId")
	c.SetParamValues(patientID.String())

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var order LabOrder
	json.Unmarshal(rec.Body.Bytes(), &order)
	if order.Status != StatusPending {
		t.Errorf("expected pending order, got %s", order.Status)
	}
	if len(order.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(order.Items))
	}
}

func TestHandler_CreateOrder_UnknownTest(t *testing.T) {
	h, e, _ := newTestHandler(t, 0)

	body := fmt.Sprintf(`{"test_ids": [%q]}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec)
	c.SetParamNames("patientId")
	c.SetParamValues(uuid.New().String())

	err := h.Create(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown test, got %v", err)
	}
}

func TestHandler_Delete_ConflictWhenResultsExist(t *testing.T) {
	h, e, fx := newTestHandler(t, 1)
	patientID := uuid.New()

	order, err := fx.svc.CreateOrder(context.Background(), patientID, uuid.New(), &CreateOrderInput{TestIDs: fx.testIDs})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fx.svc.UpsertResult(context.Background(), patientID, order.ID, order.Items[0].ID, scalarResult(3)); err != nil {
		t.Fatalf("result: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId", "id")
	c.SetParamValues(patientID.String(), order.ID.String())

	err = h.Delete(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409 when results exist, got %v", err)
	}
}

func TestHandler_Cancel(t *testing.T) {
	h, e, fx := newTestHandler(t, 1)
	patientID := uuid.New()

	order, err := fx.svc.CreateOrder(context.Background(), patientID, uuid.New(), &CreateOrderInput{TestIDs: fx.testIDs})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason": "duplicate order"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId", "id")
	c.SetParamValues(patientID.String(), order.ID.String())

	if err := h.Cancel(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got LabOrder
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if got.CancelReason == nil || *got.CancelReason != "duplicate order" {
		t.Errorf("expected cancel reason stored, got %v", got.CancelReason)
	}
}

func TestHandler_UpsertResult_CancelledConflict(t *testing.T) {
	h, e, fx := newTestHandler(t, 1)
	patientID := uuid.New()

	order, err := fx.svc.CreateOrder(context.Background(), patientID, uuid.New(), &CreateOrderInput{TestIDs: fx.testIDs})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fx.svc.CancelOrder(context.Background(), patientID, order.ID, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"value": 5, "unit": "mg/L"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId", "id", "itemId")
	c.SetParamValues(patientID.String(), order.ID.String(), order.Items[0].ID.String())

	err = h.UpsertResult(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409 for result on cancelled order, got %v", err)
	}
}

func TestHandler_Get_OtherPatient(t *testing.T) {
	h, e, fx := newTestHandler(t, 1)

	order, err := fx.svc.CreateOrder(context.Background(), uuid.New(), uuid.New(), &CreateOrderInput{TestIDs: fx.testIDs})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId", "id")
	c.SetParamValues(uuid.New().String(), order.ID.String())

	err = h.Get(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another patient's order, got %v", err)
	}
}
