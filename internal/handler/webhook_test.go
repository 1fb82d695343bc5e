package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"drivelink/internal/domain"
	"drivelink/internal/gateway/paystack"
	"drivelink/internal/service"
	"drivelink/internal/tests"
)

const webhookSecret = "sk_test_secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newWebhookRouter(reservations *tests.MockReservationStore, bookings *tests.MockBookingRepository, txs *tests.MockTransactionRepository) *gin.Engine {
	finalizer := service.NewPaymentFinalizer(bookings, txs, reservations, service.NewNotificationService())
	h := NewWebhookHandler(finalizer, webhookSecret)

	router := gin.New()
	router.POST("/v1/payments/webhook", h.HandleEvent)
	return router
}

func signedRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	mac := hmac.New(sha512.New, []byte(webhookSecret))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(paystack.SignatureHeader, hex.EncodeToString(mac.Sum(nil)))
	return req
}

func chargeSuccessBody(reference, reservationID string, amount int64) []byte {
	body, _ := json.Marshal(map[string]any{
		"event": "charge.success",
		"data": map[string]any{
			"reference": reference,
			"amount":    amount,
			"status":    "success",
			"metadata":  map[string]string{"reservation_id": reservationID},
		},
	})
	return body
}

func TestWebhookFinalizesSignedChargeSuccess(t *testing.T) {
	t.Parallel()

	reservations := tests.NewMockReservationStore()
	bookings := tests.NewMockBookingRepository()
	txs := tests.NewMockTransactionRepository()
	router := newWebhookRouter(reservations, bookings, txs)

	now := time.Now()
	_ = reservations.Put(context.Background(), &domain.Reservation{
		ID:        "res-1",
		ClientID:  "client-1",
		DriverID:  "driver-1",
		Price:     5000,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, chargeSuccessBody("ref-001", "res-1", 5000)))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if txs.CountTransactions() != 1 {
		t.Errorf("expected 1 transaction, got %d", txs.CountTransactions())
	}
	if bookings.CountBookings() != 1 {
		t.Errorf("expected 1 booking, got %d", bookings.CountBookings())
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	reservations := tests.NewMockReservationStore()
	bookings := tests.NewMockBookingRepository()
	txs := tests.NewMockTransactionRepository()
	router := newWebhookRouter(reservations, bookings, txs)

	body := chargeSuccessBody("ref-001", "res-1", 5000)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(paystack.SignatureHeader, "forged")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if txs.CountTransactions() != 0 {
		t.Errorf("forged webhook must have no side effect, got %d transactions", txs.CountTransactions())
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	t.Parallel()

	router := newWebhookRouter(tests.NewMockReservationStore(), tests.NewMockBookingRepository(), tests.NewMockTransactionRepository())

	body, _ := json.Marshal(map[string]any{"event": "transfer.success", "data": map[string]any{}})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", w.Code)
	}
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	t.Parallel()

	reservations := tests.NewMockReservationStore()
	bookings := tests.NewMockBookingRepository()
	txs := tests.NewMockTransactionRepository()
	router := newWebhookRouter(reservations, bookings, txs)

	now := time.Now()
	_ = reservations.Put(context.Background(), &domain.Reservation{
		ID:        "res-1",
		ClientID:  "client-1",
		DriverID:  "driver-1",
		Price:     5000,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})

	body := chargeSuccessBody("ref-001", "res-1", 5000)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, signedRequest(t, body))
		if w.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, w.Code)
		}
	}

	if txs.CountTransactions() != 1 {
		t.Errorf("expected 1 transaction after redeliveries, got %d", txs.CountTransactions())
	}
	if bookings.CountBookings() != 1 {
		t.Errorf("expected 1 booking after redeliveries, got %d", bookings.CountBookings())
	}
}

func TestWebhookAcksUnfinalizableEvent(t *testing.T) {
	t.Parallel()

	// A charge.success whose reservation never existed can never finalize;
	// the handler must ack it so the gateway stops redelivering.
	router := newWebhookRouter(tests.NewMockReservationStore(), tests.NewMockBookingRepository(), tests.NewMockTransactionRepository())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedRequest(t, chargeSuccessBody("ref-001", "res-ghost", 5000)))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ack for terminal failure, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["status"] != "rejected" {
		t.Errorf("expected rejected status, got %q", resp["status"])
	}
}
