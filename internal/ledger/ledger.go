// Package ledger is the single authorized path for mutating a user's coin
// or XP balance.
//
// Every Apply call runs the same pipeline: advisory lock → load user →
// sanitize delta → nonce through the replay guard → sign the operation →
// floor-clamp and persist → release the lock on a guaranteed-cleanup path.
// A call either completes fully or fails before any persistence occurs;
// there is no partial-write state to roll back.
package ledger

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/lock"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/observability"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/replay"
)

// maxSafeDelta bounds sanitized deltas to the contiguous integer range of
// a float64 (2^53), the widest value a JSON caller can express exactly.
const maxSafeDelta = 1 << 53

// Result reports a completed mutation.
type Result struct {
	Previous  int64  `json:"previous_value"`
	New       int64  `json:"new_value"`
	Signature string `json:"signature"`
}

// Config wires the core's collaborators.
type Config struct {
	Store   domain.Store
	Locks   *lock.Registry
	Guard   *replay.Guard
	Metrics *observability.Metrics // optional
	LockTTL time.Duration          // defaults to lock.DefaultTTL
	Now     func() time.Time       // defaults to time.Now
}

// Core applies balance mutations. All state lives on the instance so tests
// can build isolated cores.
type Core struct {
	store    domain.Store
	locks    *lock.Registry
	guard    *replay.Guard
	metrics  *observability.Metrics
	lockTTL  time.Duration
	now      func() time.Time
	newNonce func() string
}

// New builds a mutation core from cfg, filling defaults.
func New(cfg Config) *Core {
	c := &Core{
		store:    cfg.Store,
		locks:    cfg.Locks,
		guard:    cfg.Guard,
		metrics:  cfg.Metrics,
		lockTTL:  cfg.LockTTL,
		now:      cfg.Now,
		newNonce: uuid.NewString,
	}
	if c.lockTTL <= 0 {
		c.lockTTL = lock.DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Apply mutates one balance field of one user. The nonce is generated
// internally; see ApplyWithKey for caller-supplied idempotency keys.
func (c *Core) Apply(userID string, kind domain.ValueKind, delta float64, source string) (Result, error) {
	return c.ApplyWithKey(userID, kind, delta, source, "")
}

// ApplyWithKey is Apply plus an optional caller-supplied idempotency key.
// When idemKey is non-empty it is consumed through the replay guard first,
// so retransmitting the same logical request within the retention window
// is rejected with ErrReplayDetected before any lock is taken.
func (c *Core) ApplyWithKey(userID string, kind domain.ValueKind, delta float64, source, idemKey string) (Result, error) {
	if !domain.ValidKind(kind) {
		return Result{}, fmt.Errorf("%w: %q", domain.ErrInvalidKind, kind)
	}

	// The key is consumed up front so concurrent duplicates race on the
	// guard rather than the lock, but it is only SPENT by a committed
	// mutation: every failure path below hands it back, so a caller
	// retrying a transient rejection is not treated as a replay.
	committed := false
	if idemKey != "" {
		if !c.guard.Accept(idemKey) {
			c.countReplay()
			return Result{}, fmt.Errorf("%w: idempotency key %q", domain.ErrReplayDetected, idemKey)
		}
		defer func() {
			if !committed {
				c.guard.Forget(idemKey)
			}
		}()
	}

	key := "value:" + userID
	if !c.locks.Acquire(key, c.lockTTL) {
		if c.metrics != nil {
			c.metrics.LockConflicts.Inc()
		}
		c.countApply(kind, "lock_conflict")
		return Result{}, fmt.Errorf("%w: %s", domain.ErrLockConflict, key)
	}
	// Runs even if any step below fails, so a lock is never leaked by its
	// own holder.
	defer c.locks.Release(key)

	user, err := c.store.GetUser(userID)
	if err != nil {
		c.countApply(kind, "user_not_found")
		return Result{}, err
	}

	amount, err := sanitizeDelta(delta)
	if err != nil {
		c.countApply(kind, "invalid_amount")
		return Result{}, err
	}

	// The nonce is generated here and immediately consumed. A rejection can
	// only mean the same Apply ran twice inside one process — log it as
	// anomalous, never retry.
	nonce := c.newNonce()
	if !c.guard.Accept(nonce) {
		c.countReplay()
		log.Printf("ledger: ANOMALY nonce %q rejected for locally generated operation (user=%s)", nonce, userID)
		return Result{}, fmt.Errorf("%w: nonce %q", domain.ErrReplayDetected, nonce)
	}

	op := domain.LedgerOperation{
		UserID:    userID,
		Kind:      kind,
		Delta:     amount,
		Source:    source,
		Timestamp: c.now(),
		Nonce:     nonce,
	}
	op.Signature = SignOperation(op)

	previous := user.Coins
	if kind == domain.KindXP {
		previous = user.XP
	}

	// Invariant: balances never go negative. Floor-clamp rather than fail,
	// so an over-spend empties the balance instead of corrupting it.
	next := previous + amount
	if next < 0 {
		next = 0
		if c.metrics != nil {
			c.metrics.LedgerClamps.Inc()
		}
	}

	if kind == domain.KindXP {
		user.XP = next
	} else {
		user.Coins = next
	}

	if err := c.store.UpdateUser(*user); err != nil {
		c.countApply(kind, "store_error")
		return Result{}, fmt.Errorf("persist user %s: %w", userID, err)
	}
	committed = true

	// The coin transaction log is an append-only audit input, not the
	// balance of record; a failed append is logged, not rolled back.
	if kind == domain.KindCoin && amount != 0 {
		if err := c.store.InsertTransaction(transactionFor(op)); err != nil {
			log.Printf("ledger: transaction log append failed for %s: %v", userID, err)
		}
	}

	log.Printf("ledger: %s %s %+d via %q (%d → %d) sig=%s", userID, kind, amount, source, previous, next, op.Signature)
	c.countApply(kind, "ok")

	return Result{Previous: previous, New: next, Signature: op.Signature}, nil
}

// sanitizeDelta converts a caller-supplied amount into a safe integer
// delta. NaN, infinities, and values outside the float64-exact integer
// range are rejected; fractional parts are truncated toward zero.
func sanitizeDelta(delta float64) (int64, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, delta)
	}
	if delta > maxSafeDelta || delta < -maxSafeDelta {
		return 0, fmt.Errorf("%w: %v out of range", domain.ErrInvalidAmount, delta)
	}
	return int64(math.Trunc(delta)), nil
}

// transactionFor derives the append-only log entry for a coin mutation.
func transactionFor(op domain.LedgerOperation) domain.Transaction {
	txType := domain.TxEarn
	amount := op.Delta
	if amount < 0 {
		txType = domain.TxSpend
		amount = -amount
	}
	return domain.Transaction{
		UserID: op.UserID,
		Type:   txType,
		Amount: amount,
		Source: op.Source,
		Date:   op.Timestamp,
	}
}

func (c *Core) countApply(kind domain.ValueKind, result string) {
	if c.metrics != nil {
		c.metrics.LedgerApplies.WithLabelValues(string(kind), result).Inc()
	}
}

func (c *Core) countReplay() {
	if c.metrics != nil {
		c.metrics.ReplayRejects.Inc()
	}
}

// IsTransient reports whether err is worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrLockConflict)
}
