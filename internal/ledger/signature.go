package ledger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

// canonical renders the operation fields in a fixed order so signatures
// are deterministic for identical operations.
func canonical(op domain.LedgerOperation) string {
	return strings.Join([]string{
		op.UserID,
		string(op.Kind),
		fmt.Sprintf("%d", op.Delta),
		op.Source,
		op.Timestamp.UTC().Format(time.RFC3339Nano),
		op.Nonce,
	}, "|")
}

// SignOperation computes a deterministic, NON-CRYPTOGRAPHIC checksum over
// the canonical operation. It is a tamper-evidence aid for log readers,
// not a security control — anyone who can edit a log line can recompute
// it. Use MACOperation where audit-grade integrity is required.
func SignOperation(op domain.LedgerOperation) string {
	h := fnv.New64a()
	h.Write([]byte(canonical(op)))
	return fmt.Sprintf("%016x", h.Sum64())
}

// MACOperation computes a keyed SHA-256 MAC over the canonical operation.
// With a key held outside the log store this IS tamper-proof and should be
// preferred for audit-grade trails.
func MACOperation(op domain.LedgerOperation, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(canonical(op)))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateSecureID mints a collision-resistant identifier of the form
// PREFIX-HEXHASH, mixing the prefix, caller context, current time, and a
// random value. It mints tickets and identifiers; it plays no role in
// balance safety.
func GenerateSecureID(prefix, context string) string {
	seed := fmt.Sprintf("%s|%s|%d|%s", prefix, context, time.Now().UnixNano(), uuid.NewString())
	sum := sha256.Sum256([]byte(seed))
	return strings.ToUpper(prefix) + "-" + strings.ToUpper(hex.EncodeToString(sum[:6]))
}
