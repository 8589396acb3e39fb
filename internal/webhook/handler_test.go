package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func newTestRouter() (*gin.Engine, *Deduper) {
	gin.SetMode(gin.TestMode)
	d := NewDeduper(nil, time.Hour, zerolog.Nop())
	router := gin.New()
	router.POST("/webhooks/:source", Receive(d, zerolog.Nop()))
	return router, d
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestReceiveFirstDelivery(t *testing.T) {
	router, _ := newTestRouter()

	w := post(router, `{"id":"evt_1","type":"invoice.paid","data":{}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "duplicate") {
		t.Errorf("first delivery flagged duplicate: %s", w.Body.String())
	}
}

func TestReceiveDuplicateDelivery(t *testing.T) {
	router, _ := newTestRouter()

	post(router, `{"id":"evt_1","type":"invoice.paid","data":{}}`)
	w := post(router, `{"id":"evt_1","type":"invoice.paid","data":{}}`)

	// Duplicates are acknowledged, not errored, so the provider stops
	// retrying.
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"duplicate":true`) {
		t.Errorf("duplicate not flagged: %s", w.Body.String())
	}
}

func TestReceiveRejectsMissingID(t *testing.T) {
	router, _ := newTestRouter()

	if w := post(router, `{"type":"invoice.paid"}`); w.Code != http.StatusBadRequest {
		t.Errorf("status without id = %d, want 400", w.Code)
	}
	if w := post(router, `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("status for invalid body = %d, want 400", w.Code)
	}
}
