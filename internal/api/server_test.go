package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/adminrules"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/audit"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/heal"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/lock"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/memstore"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/replay"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/ledger"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/leveling"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/sentinel"
)

func newTestServer(t *testing.T) (*Server, *memstore.Store) {
	t.Helper()

	store := memstore.New()
	calc := leveling.New()
	core := ledger.New(ledger.Config{
		Store: store,
		Locks: lock.NewRegistry().Quiet(),
		Guard: replay.NewGuard(replay.DefaultWindow),
	})
	monitor := adminrules.NewMonitor(adminrules.NewEngine(calc), store, nil)
	sent := sentinel.New(sentinel.Config{
		Store: store,
		Calc:  calc,
		Audit: audit.NewEngine(),
	})
	return NewServer(store, core, monitor, sent, heal.New(nil)), store
}

func seedUser(store *memstore.Store, id string, coins, xp int64) {
	store.PutUser(domain.UserEconomyState{
		ID: id, Coins: coins, XP: xp, Level: 1, Plan: domain.PlanFree,
		JoinedAt: time.Now().Add(-30 * 24 * time.Hour),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLedgerApply(t *testing.T) {
	srv, store := newTestServer(t)
	seedUser(store, "u1", 30, 0)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/ledger/apply", applyRequest{
		UserID: "u1", Kind: "COIN", Delta: -50, Source: "store_purchase",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp applyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Deduction beyond the balance floors at zero.
	if resp.Previous != 30 || resp.New != 0 {
		t.Errorf("previous=%d new=%d, want 30 → 0", resp.Previous, resp.New)
	}
	if resp.Signature == "" {
		t.Error("signature missing")
	}
}

func TestLedgerApplyErrors(t *testing.T) {
	srv, store := newTestServer(t)
	seedUser(store, "u1", 100, 0)
	h := srv.Handler()

	tests := []struct {
		name string
		req  applyRequest
		want int
	}{
		{"unknown user", applyRequest{UserID: "ghost", Kind: "COIN", Delta: 1}, http.StatusNotFound},
		{"bad kind", applyRequest{UserID: "u1", Kind: "GEMS", Delta: 1}, http.StatusBadRequest},
		{"missing user_id", applyRequest{Kind: "COIN", Delta: 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/v1/ledger/apply", tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestLedgerApplyIdempotencyKeyConflict(t *testing.T) {
	srv, store := newTestServer(t)
	seedUser(store, "u1", 0, 0)
	h := srv.Handler()

	req := applyRequest{UserID: "u1", Kind: "COIN", Delta: 10, Source: "mission", IdempotencyKey: "op-123"}
	if rec := doJSON(t, h, http.MethodPost, "/v1/ledger/apply", req); rec.Code != http.StatusOK {
		t.Fatalf("first apply: status = %d", rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, "/v1/ledger/apply", req)
	if rec.Code != http.StatusConflict {
		t.Errorf("replayed apply: status = %d, want 409", rec.Code)
	}

	u, _ := store.GetUser("u1")
	if u.Coins != 10 {
		t.Errorf("coins = %d, want 10 (replay must not double-credit)", u.Coins)
	}
}

func TestAdminValidateBlocked(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/admin/validate", adminrules.Action{
		Kind: adminrules.ActionEditPrice,
		Item: &domain.StoreItem{ID: "i1", Name: "Skip", Price: -5, Category: "utility"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body %s)", rec.Code, rec.Body.String())
	}
	var resp validateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Blocked || resp.Passed {
		t.Errorf("resp = %+v, want blocked failure", resp)
	}
}

func TestAdminValidateSoftFailureIsAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	// Suspiciously cheap but not invalid: flagged, not blocked.
	rec := doJSON(t, h, http.MethodPost, "/v1/admin/validate", adminrules.Action{
		Kind: adminrules.ActionEditPrice,
		Item: &domain.StoreItem{ID: "i1", Name: "Skip", Price: 5, Category: "utility"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp validateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Blocked || resp.Passed {
		t.Errorf("resp = %+v, want unblocked flagged failure", resp)
	}
}

func TestScanAndReport(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	// One corrupted user: negative balance.
	store.PutUser(domain.UserEconomyState{
		ID: "bad", Coins: -10, Level: 1, Plan: domain.PlanFree,
		JoinedAt: time.Now().Add(-10 * 24 * time.Hour),
	})

	rec := doJSON(t, h, http.MethodGet, "/v1/scan", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("scan status = %d", rec.Code)
	}
	var scan domain.ScanResult
	if err := json.Unmarshal(rec.Body.Bytes(), &scan); err != nil {
		t.Fatalf("decode scan: %v", err)
	}
	if scan.GlobalRiskLevel != domain.RiskCritical {
		t.Errorf("risk = %s, want critical", scan.GlobalRiskLevel)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/scan/alerts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bad") {
		t.Errorf("alerts should name the corrupted user, got %s", rec.Body.String())
	}
}

func TestHealEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	store.PutUser(domain.UserEconomyState{
		ID: "u1", Coins: -40, XP: -5, Level: 0, Plan: domain.PlanFree, JoinedAt: time.Now(),
	})

	rec := doJSON(t, h, http.MethodPost, "/v1/heal/u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp healResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Fixes) != 3 {
		t.Errorf("fixes = %+v, want 3", resp.Fixes)
	}

	u, _ := store.GetUser("u1")
	if u.Coins != 0 || u.XP != 0 || u.Level != 1 {
		t.Errorf("repairs not persisted: %+v", u)
	}

	// Second heal is a no-op.
	rec = doJSON(t, h, http.MethodPost, "/v1/heal/u1", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Fixes) != 0 {
		t.Errorf("second heal fixes = %+v, want none", resp.Fixes)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/heal/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d, want 404", rec.Code)
	}
}
