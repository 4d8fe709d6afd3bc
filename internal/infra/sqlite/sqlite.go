// Package sqlite persists the economy collections. Pure-Go driver
// (modernc.org/sqlite), so the binary stays CGO-free.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

var _ domain.Store = (*DB)(nil)

// DB wraps the sqlite handle and implements domain.Store.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for throwaway databases.
func Open(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// under the concurrent scan fan-out.
	handle.SetMaxOpenConns(1)

	db := &DB{db: handle}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error { return db.db.Close() }

// Migrations returns the schema statements. Each string is a single SQL
// statement (sqlite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			coins         INTEGER NOT NULL DEFAULT 0,
			xp            INTEGER NOT NULL DEFAULT 0,
			level         INTEGER NOT NULL DEFAULT 1,
			plan          TEXT NOT NULL DEFAULT 'FREE',
			monthly_missions INTEGER NOT NULL DEFAULT 0,
			total_missions   INTEGER NOT NULL DEFAULT 0,
			checkin_streak   INTEGER NOT NULL DEFAULT 0,
			joined_at     TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			type    TEXT NOT NULL,
			amount  INTEGER NOT NULL,
			source  TEXT NOT NULL DEFAULT '',
			date    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, date)`,

		`CREATE TABLE IF NOT EXISTS mission_submissions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      TEXT NOT NULL,
			mission_id   TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'pending'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_user ON mission_submissions(user_id, submitted_at)`,

		`CREATE TABLE IF NOT EXISTS redeemed_items (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      TEXT NOT NULL,
			item_id      TEXT NOT NULL,
			item_name    TEXT NOT NULL DEFAULT '',
			item_price   INTEGER NOT NULL,
			coins_before INTEGER NOT NULL,
			coins_after  INTEGER NOT NULL,
			redeemed_at  TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_redemptions_user ON redeemed_items(user_id, redeemed_at)`,

		`CREATE TABLE IF NOT EXISTS missions (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			tier        TEXT NOT NULL DEFAULT '',
			reward_xp     INTEGER NOT NULL DEFAULT 0,
			reward_coins  INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS store_items (
			id       TEXT PRIMARY KEY,
			name     TEXT NOT NULL DEFAULT '',
			price    INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS queue_entries (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			item_id    TEXT NOT NULL,
			entered_at TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'waiting'
		)`,

		`CREATE TABLE IF NOT EXISTS admin_audit_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			action    TEXT NOT NULL,
			payload   TEXT NOT NULL DEFAULT '',
			rule      TEXT NOT NULL DEFAULT '',
			passed    INTEGER NOT NULL DEFAULT 0,
			severity  TEXT NOT NULL DEFAULT '',
			details   TEXT NOT NULL DEFAULT '',
			subject   TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ─── Time encoding ──────────────────────────────────────────────────────────

func encodeTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ─── Users ──────────────────────────────────────────────────────────────────

// UpsertUser inserts or replaces a user row (seeding and imports).
func (db *DB) UpsertUser(u domain.UserEconomyState) error {
	_, err := db.db.Exec(`
		INSERT INTO users (id, coins, xp, level, plan, monthly_missions, total_missions, checkin_streak, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			coins = excluded.coins,
			xp = excluded.xp,
			level = excluded.level,
			plan = excluded.plan,
			monthly_missions = excluded.monthly_missions,
			total_missions = excluded.total_missions,
			checkin_streak = excluded.checkin_streak,
			joined_at = excluded.joined_at
	`, u.ID, u.Coins, u.XP, u.Level, string(u.Plan),
		u.MonthlyMissionsCompleted, u.TotalMissionsCompleted, u.WeeklyCheckInStreak, encodeTime(u.JoinedAt))
	return err
}

func scanUser(row interface{ Scan(...interface{}) error }) (domain.UserEconomyState, error) {
	var u domain.UserEconomyState
	var plan, joined string
	err := row.Scan(&u.ID, &u.Coins, &u.XP, &u.Level, &plan,
		&u.MonthlyMissionsCompleted, &u.TotalMissionsCompleted, &u.WeeklyCheckInStreak, &joined)
	if err != nil {
		return u, err
	}
	u.Plan = domain.Plan(plan)
	u.JoinedAt = decodeTime(joined)
	return u, nil
}

const userColumns = `id, coins, xp, level, plan, monthly_missions, total_missions, checkin_streak, joined_at`

// GetUser returns one user or domain.ErrUserNotFound.
func (db *DB) GetUser(id string) (*domain.UserEconomyState, error) {
	row := db.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user ordered by id.
func (db *DB) ListUsers() ([]domain.UserEconomyState, error) {
	rows, err := db.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserEconomyState
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUser replaces an existing user's mutable fields.
func (db *DB) UpdateUser(u domain.UserEconomyState) error {
	res, err := db.db.Exec(`
		UPDATE users SET coins = ?, xp = ?, level = ?, plan = ?,
			monthly_missions = ?, total_missions = ?, checkin_streak = ?
		WHERE id = ?
	`, u.Coins, u.XP, u.Level, string(u.Plan),
		u.MonthlyMissionsCompleted, u.TotalMissionsCompleted, u.WeeklyCheckInStreak, u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ─── Transactions ───────────────────────────────────────────────────────────

// InsertTransaction appends to the coin transaction log.
func (db *DB) InsertTransaction(tx domain.Transaction) error {
	_, err := db.db.Exec(`
		INSERT INTO transactions (user_id, type, amount, source, date)
		VALUES (?, ?, ?, ?, ?)
	`, tx.UserID, string(tx.Type), tx.Amount, tx.Source, encodeTime(tx.Date))
	return err
}

// ListTransactions returns one user's transaction log in date order.
func (db *DB) ListTransactions(userID string) ([]domain.Transaction, error) {
	rows, err := db.db.Query(`
		SELECT user_id, type, amount, source, date
		FROM transactions WHERE user_id = ? ORDER BY date
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var typ, date string
		if err := rows.Scan(&tx.UserID, &typ, &tx.Amount, &tx.Source, &date); err != nil {
			return nil, err
		}
		tx.Type = domain.TransactionType(typ)
		tx.Date = decodeTime(date)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// ─── Submissions ────────────────────────────────────────────────────────────

// InsertSubmission appends to the mission submission log.
func (db *DB) InsertSubmission(sub domain.MissionSubmission) error {
	_, err := db.db.Exec(`
		INSERT INTO mission_submissions (user_id, mission_id, submitted_at, status)
		VALUES (?, ?, ?, ?)
	`, sub.UserID, sub.MissionID, encodeTime(sub.SubmittedAt), string(sub.Status))
	return err
}

func (db *DB) querySubmissions(query string, args ...interface{}) ([]domain.MissionSubmission, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MissionSubmission
	for rows.Next() {
		var sub domain.MissionSubmission
		var at, status string
		if err := rows.Scan(&sub.UserID, &sub.MissionID, &at, &status); err != nil {
			return nil, err
		}
		sub.SubmittedAt = decodeTime(at)
		sub.Status = domain.SubmissionStatus(status)
		out = append(out, sub)
	}
	return out, rows.Err()
}

// ListSubmissions returns one user's submissions in time order.
func (db *DB) ListSubmissions(userID string) ([]domain.MissionSubmission, error) {
	return db.querySubmissions(`
		SELECT user_id, mission_id, submitted_at, status
		FROM mission_submissions WHERE user_id = ? ORDER BY submitted_at
	`, userID)
}

// ListAllSubmissions returns the whole submission log.
func (db *DB) ListAllSubmissions() ([]domain.MissionSubmission, error) {
	return db.querySubmissions(`
		SELECT user_id, mission_id, submitted_at, status
		FROM mission_submissions ORDER BY submitted_at
	`)
}

// ─── Redemptions ────────────────────────────────────────────────────────────

// InsertRedemption appends to the redemption log.
func (db *DB) InsertRedemption(r domain.RedeemedItem) error {
	_, err := db.db.Exec(`
		INSERT INTO redeemed_items (user_id, item_id, item_name, item_price, coins_before, coins_after, redeemed_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.UserID, r.ItemID, r.ItemName, r.ItemPrice, r.CoinsBefore, r.CoinsAfter, encodeTime(r.RedeemedAt), r.Status)
	return err
}

func (db *DB) queryRedemptions(query string, args ...interface{}) ([]domain.RedeemedItem, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RedeemedItem
	for rows.Next() {
		var r domain.RedeemedItem
		var at string
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.ItemName, &r.ItemPrice,
			&r.CoinsBefore, &r.CoinsAfter, &at, &r.Status); err != nil {
			return nil, err
		}
		r.RedeemedAt = decodeTime(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRedemptions returns one user's redemptions in time order.
func (db *DB) ListRedemptions(userID string) ([]domain.RedeemedItem, error) {
	return db.queryRedemptions(`
		SELECT user_id, item_id, item_name, item_price, coins_before, coins_after, redeemed_at, status
		FROM redeemed_items WHERE user_id = ? ORDER BY redeemed_at
	`, userID)
}

// ListAllRedemptions returns the whole redemption log.
func (db *DB) ListAllRedemptions() ([]domain.RedeemedItem, error) {
	return db.queryRedemptions(`
		SELECT user_id, item_id, item_name, item_price, coins_before, coins_after, redeemed_at, status
		FROM redeemed_items ORDER BY redeemed_at
	`)
}

// ─── Missions, Items, Queue ─────────────────────────────────────────────────

// UpsertMission inserts or replaces a mission.
func (db *DB) UpsertMission(m domain.Mission) error {
	_, err := db.db.Exec(`
		INSERT INTO missions (id, type, title, description, tier, reward_xp, reward_coins)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type, title = excluded.title,
			description = excluded.description, tier = excluded.tier,
			reward_xp = excluded.reward_xp, reward_coins = excluded.reward_coins
	`, m.ID, string(m.Type), m.Title, m.Description, string(m.Tier), m.Reward.XP, m.Reward.Coins)
	return err
}

// GetMission returns one mission or domain.ErrMissionNotFound.
func (db *DB) GetMission(id string) (*domain.Mission, error) {
	var m domain.Mission
	var typ, tier string
	err := db.db.QueryRow(`
		SELECT id, type, title, description, tier, reward_xp, reward_coins
		FROM missions WHERE id = ?
	`, id).Scan(&m.ID, &typ, &m.Title, &m.Description, &tier, &m.Reward.XP, &m.Reward.Coins)
	if err == sql.ErrNoRows {
		return nil, domain.ErrMissionNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Type = domain.MissionType(typ)
	m.Tier = domain.RewardTier(tier)
	return &m, nil
}

// UpsertItem inserts or replaces a store item.
func (db *DB) UpsertItem(it domain.StoreItem) error {
	_, err := db.db.Exec(`
		INSERT INTO store_items (id, name, price, category)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, price = excluded.price, category = excluded.category
	`, it.ID, it.Name, it.Price, it.Category)
	return err
}

// GetItem returns one item or domain.ErrItemNotFound.
func (db *DB) GetItem(id string) (*domain.StoreItem, error) {
	var it domain.StoreItem
	err := db.db.QueryRow(`
		SELECT id, name, price, category FROM store_items WHERE id = ?
	`, id).Scan(&it.ID, &it.Name, &it.Price, &it.Category)
	if err == sql.ErrNoRows {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// InsertQueueEntry appends to the live queue.
func (db *DB) InsertQueueEntry(q domain.QueueEntry) error {
	_, err := db.db.Exec(`
		INSERT INTO queue_entries (id, user_id, item_id, entered_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, q.ID, q.UserID, q.ItemID, encodeTime(q.EnteredAt), q.Status)
	return err
}

// ListQueue returns the live queue snapshot in arrival order.
func (db *DB) ListQueue() ([]domain.QueueEntry, error) {
	rows, err := db.db.Query(`
		SELECT id, user_id, item_id, entered_at, status
		FROM queue_entries ORDER BY entered_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.QueueEntry
	for rows.Next() {
		var q domain.QueueEntry
		var at string
		if err := rows.Scan(&q.ID, &q.UserID, &q.ItemID, &at, &q.Status); err != nil {
			return nil, err
		}
		q.EnteredAt = decodeTime(at)
		out = append(out, q)
	}
	return out, rows.Err()
}

// ─── Admin Audit Log ────────────────────────────────────────────────────────

// InsertAuditLog appends one validated admin action.
func (db *DB) InsertAuditLog(entry domain.AdminAuditEntry) error {
	passed := 0
	if entry.Result.Passed {
		passed = 1
	}
	_, err := db.db.Exec(`
		INSERT INTO admin_audit_log (action, payload, rule, passed, severity, details, subject, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Action, entry.Payload, entry.Result.Rule, passed,
		string(entry.Result.Severity), entry.Result.Details, entry.Result.Subject, encodeTime(entry.Timestamp))
	return err
}

// ListAuditLog returns the newest `limit` audit entries.
func (db *DB) ListAuditLog(limit int) ([]domain.AdminAuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.db.Query(`
		SELECT action, payload, rule, passed, severity, details, subject, timestamp
		FROM admin_audit_log ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AdminAuditEntry
	for rows.Next() {
		var e domain.AdminAuditEntry
		var passed int
		var sev, ts string
		if err := rows.Scan(&e.Action, &e.Payload, &e.Result.Rule, &passed,
			&sev, &e.Result.Details, &e.Result.Subject, &ts); err != nil {
			return nil, err
		}
		e.Result.Passed = passed == 1
		e.Result.Severity = domain.Severity(sev)
		e.Timestamp = decodeTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
