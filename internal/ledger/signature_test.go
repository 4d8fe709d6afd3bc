package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

func testOperation() domain.LedgerOperation {
	return domain.LedgerOperation{
		UserID:    "u1",
		Kind:      domain.KindCoin,
		Delta:     50,
		Source:    "mission",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Nonce:     "nonce-1",
	}
}

func TestSignOperation_Deterministic(t *testing.T) {
	op := testOperation()

	if SignOperation(op) != SignOperation(op) {
		t.Error("identical operations must produce identical signatures")
	}
}

func TestSignOperation_FieldSensitive(t *testing.T) {
	base := SignOperation(testOperation())

	mutations := map[string]func(*domain.LedgerOperation){
		"user":  func(op *domain.LedgerOperation) { op.UserID = "u2" },
		"kind":  func(op *domain.LedgerOperation) { op.Kind = domain.KindXP },
		"delta": func(op *domain.LedgerOperation) { op.Delta = 51 },
		"nonce": func(op *domain.LedgerOperation) { op.Nonce = "nonce-2" },
	}
	for name, mutate := range mutations {
		op := testOperation()
		mutate(&op)
		if SignOperation(op) == base {
			t.Errorf("changing %s did not change the signature", name)
		}
	}
}

func TestMACOperation_KeyDependent(t *testing.T) {
	op := testOperation()

	a := MACOperation(op, []byte("key-a"))
	b := MACOperation(op, []byte("key-b"))
	if a == b {
		t.Error("different keys must produce different MACs")
	}
	if a != MACOperation(op, []byte("key-a")) {
		t.Error("MAC must be deterministic for one key")
	}
}

func TestGenerateSecureID_Format(t *testing.T) {
	id := GenerateSecureID("ticket", "u1")

	if !strings.HasPrefix(id, "TICKET-") {
		t.Errorf("id %q should carry the uppercased prefix", id)
	}
	if len(id) != len("TICKET-")+12 {
		t.Errorf("id %q hash part should be 12 hex chars", id)
	}
}

func TestGenerateSecureID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateSecureID("ticket", "u1")
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
