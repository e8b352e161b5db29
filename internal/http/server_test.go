package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mstore/internal/core"
	"mstore/internal/services"
	"mstore/internal/storage"
)

var march5 = time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, cfg Config, opts ...services.Option) (*Server, *services.LedgerService) {
	t.Helper()
	base := []services.Option{
		services.WithClock(func() time.Time { return march5 }),
		services.WithLocation(time.UTC),
	}
	svc := services.NewLedgerService(storage.NewMemoryStore(), append(base, opts...)...)
	s := NewServer(cfg, svc, nil)
	t.Cleanup(s.limiter.Stop)
	return s, svc
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndReady(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	if rec := do(s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}

	down, _ := newTestServer(t, Config{Ready: func(context.Context) error { return errors.New("redis down") }})
	rec := do(down, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing check = %d, want 503", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "redis down") {
		t.Error("readiness error leaked into response")
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(s, http.MethodGet, "/healthz", "")

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestAddAndListRecords(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(s, http.MethodPost, "/api/purchase",
		`{"itemName":"Rice","quantity":10,"price":150.50,"purchasedFrom":"Farm A"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add = %d %s", rec.Code, rec.Body.String())
	}
	var added recordResponse
	decode(t, rec, &added)
	want := core.Record{ItemName: "Rice", Quantity: "10", Price: "150.50", PurchasedFrom: "Farm A", Date: "2024-03-05"}
	if added.Record != want || added.DateKey != "2024-03-05" {
		t.Errorf("added = %+v", added)
	}

	rec = do(s, http.MethodPost, "/api/sales/2024-03-01", "itemName=Tea&quantity=2&price=75&soldTo=Bob&recovery=25")
	if rec.Code != http.StatusCreated {
		t.Fatalf("form add = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(s, http.MethodGet, "/api/purchase/today", "")
	var list recordsResponse
	decode(t, rec, &list)
	if list.Kind != core.Purchase || len(list.Records) != 1 || list.Records[0] != want {
		t.Errorf("today's purchases = %+v", list)
	}

	rec = do(s, http.MethodGet, "/api/sale/2024-03-01", "")
	decode(t, rec, &list)
	if len(list.Records) != 1 || list.Records[0].SoldTo != "Bob" || list.Records[0].Recovery != "25" {
		t.Errorf("sales = %+v", list)
	}

	rec = do(s, http.MethodGet, "/api/sale/2024-02-01", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"records":[]`) {
		t.Errorf("empty day = %d %s", rec.Code, rec.Body.String())
	}
}

func TestAddRecordErrors(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"missing fields", "/api/purchase", `{"itemName":"Rice"}`, http.StatusUnprocessableEntity},
		{"unknown kind", "/api/refund", `{"itemName":"Rice","quantity":"1","price":"2"}`, http.StatusBadRequest},
		{"bad date", "/api/purchase/2024-13-01", `{"itemName":"Rice","quantity":"1","price":"2"}`, http.StatusBadRequest},
		{"malformed json", "/api/purchase", `{"itemName":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	rec := do(s, http.MethodPost, "/api/purchase", `{"itemName":"Rice"}`)
	var body ErrorBody
	decode(t, rec, &body)
	if strings.Join(body.Fields, ",") != "quantity,price" {
		t.Errorf("fields = %v, want quantity,price", body.Fields)
	}
}

func TestTodayOnlyRejectsOtherDates(t *testing.T) {
	s, _ := newTestServer(t, Config{}, services.WithTodayOnly(true))

	rec := do(s, http.MethodPost, "/api/purchase/2024-03-04", `{"itemName":"Rice","quantity":"1","price":"2"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("past date add = %d, want 403", rec.Code)
	}
	rec = do(s, http.MethodPost, "/api/purchase/today", `{"itemName":"Rice","quantity":"1","price":"2"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("today add = %d, want 201", rec.Code)
	}
}

func TestDeleteRecord(t *testing.T) {
	s, svc := newTestServer(t, Config{})
	if _, err := svc.AddRecord(context.Background(), core.Purchase, "", core.Fields{ItemName: "Rice", Quantity: "1", Price: "2"}); err != nil {
		t.Fatal(err)
	}

	rec := do(s, http.MethodDelete, "/api/purchase/2024-03-05/0", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"itemName":"Rice"`) {
		t.Fatalf("delete = %d %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		target string
		status int
	}{
		{"/api/purchase/2024-03-05/0", http.StatusNotFound},
		{"/api/purchase/2024-03-01/0", http.StatusNotFound},
		{"/api/purchase/2024-03-05/x", http.StatusBadRequest},
		{"/api/purchase/2024-03-05/-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := do(s, http.MethodDelete, tt.target, ""); rec.Code != tt.status {
			t.Errorf("DELETE %s = %d, want %d", tt.target, rec.Code, tt.status)
		}
	}
}

func TestReports(t *testing.T) {
	s, svc := newTestServer(t, Config{})
	ctx := context.Background()
	_, _ = svc.AddRecord(ctx, core.Purchase, "", core.Fields{ItemName: "Rice", Quantity: "10", Price: "500"})
	_, _ = svc.AddRecord(ctx, core.Sale, "", core.Fields{ItemName: "Rice", Quantity: "4", Price: "300", Counterparty: "Bob", Recovery: "100"})

	rec := do(s, http.MethodGet, "/api/stats?kind=purchase&period=daily", "")
	var st struct {
		Kind   string `json:"kind"`
		Period string `json:"period"`
		Amount string `json:"amount"`
		Items  int64  `json:"items"`
	}
	decode(t, rec, &st)
	if st.Amount != "500" || st.Items != 10 || st.Period != "daily" {
		t.Errorf("stats = %+v", st)
	}

	rec = do(s, http.MethodGet, "/api/profit?period=monthly", "")
	var pr struct {
		Profit string `json:"profit"`
	}
	decode(t, rec, &pr)
	if pr.Profit != "-200" {
		t.Errorf("profit = %s, want -200", pr.Profit)
	}

	rec = do(s, http.MethodGet, "/api/dashboard", "")
	if rec.Code != http.StatusOK || strings.Count(rec.Body.String(), `"period"`) != 4 {
		t.Errorf("dashboard = %s", rec.Body.String())
	}

	rec = do(s, http.MethodGet, "/api/counterparties?kind=sale", "")
	var cps counterpartiesResponse
	decode(t, rec, &cps)
	if cps.Label != "Sold To" || len(cps.Counterparties) != 1 || cps.Counterparties[0].Remaining().String() != "200" {
		t.Errorf("counterparties = %+v", cps)
	}

	rec = do(s, http.MethodGet, "/api/months/2024/2?kind=sale", "")
	var month monthResponse
	decode(t, rec, &month)
	if len(month.Days) != 29 {
		t.Errorf("february 2024 has %d days, want 29", len(month.Days))
	}

	for _, target := range []string{
		"/api/stats?kind=sale&period=yearly",
		"/api/stats?period=daily",
		"/api/months/2024/13?kind=sale",
		"/api/counterparties?kind=refund",
	} {
		if rec := do(s, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", target, rec.Code)
		}
	}
}

func TestExports(t *testing.T) {
	s, svc := newTestServer(t, Config{})
	_, _ = svc.AddRecord(context.Background(), core.Sale, "", core.Fields{ItemName: "Tea", Quantity: "2", Price: "75", Counterparty: "Bob"})

	rec := do(s, http.MethodGet, "/export/sale?period=overall", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=sale-Overall.csv" {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	want := `"Item Name","Quantity","Price (Rs)","Sold To","Recovery (Rs)","Date"` + "\n" +
		`"Tea","2","75","Bob","","2024-03-05"`
	if rec.Body.String() != want {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = do(s, http.MethodGet, "/export/sale", "")
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=sale-2024-03-05.csv" {
		t.Errorf("daily Content-Disposition = %q", got)
	}

	rec = do(s, http.MethodGet, "/export/dashboard", "")
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=dashboard-2024-03-05.csv" {
		t.Errorf("dashboard Content-Disposition = %q", got)
	}

	rec = do(s, http.MethodGet, "/export/sale/counterparties", "")
	if !strings.Contains(rec.Body.String(), `"Bob","2","75","0","75"`) {
		t.Errorf("counterparties body = %q", rec.Body.String())
	}

	if rec := do(s, http.MethodGet, "/export/refund", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind export = %d", rec.Code)
	}

	rec = do(s, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), "mstore_exports_total 4") {
		t.Errorf("metrics = %s", rec.Body.String())
	}
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	s, _ := newTestServer(t, Config{RequestsPerMinute: 2})
	body := `{"itemName":"Rice","quantity":"1","price":"2"}`

	for i := range 2 {
		if rec := do(s, http.MethodPost, "/api/purchase", body); rec.Code != http.StatusCreated {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := do(s, http.MethodPost, "/api/purchase", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third write = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	for range 5 {
		if rec := do(s, http.MethodGet, "/api/purchase/today", ""); rec.Code != http.StatusOK {
			t.Fatalf("reads must not be limited, got %d", rec.Code)
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	s, _ := newTestServer(t, Config{Addr: "127.0.0.1:0"})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}
