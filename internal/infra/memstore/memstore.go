// Package memstore is an in-memory domain.Store. It backs tests and the
// demo scan path; production deployments use the sqlite store.
package memstore

import (
	"sort"
	"sync"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

var _ domain.Store = (*Store)(nil)

// Store holds all collections behind one mutex. Copy-on-read so callers
// can never alias internal state.
type Store struct {
	mu           sync.RWMutex
	users        map[string]domain.UserEconomyState
	transactions []domain.Transaction
	submissions  []domain.MissionSubmission
	redemptions  []domain.RedeemedItem
	missions     map[string]domain.Mission
	items        map[string]domain.StoreItem
	queue        []domain.QueueEntry
	auditLog     []domain.AdminAuditEntry
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:    make(map[string]domain.UserEconomyState),
		missions: make(map[string]domain.Mission),
		items:    make(map[string]domain.StoreItem),
	}
}

// ─── Seeding ────────────────────────────────────────────────────────────────

// PutUser inserts or replaces a user.
func (s *Store) PutUser(u domain.UserEconomyState) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
}

// PutMission inserts or replaces a mission.
func (s *Store) PutMission(m domain.Mission) {
	s.mu.Lock()
	s.missions[m.ID] = m
	s.mu.Unlock()
}

// PutItem inserts or replaces a store item.
func (s *Store) PutItem(it domain.StoreItem) {
	s.mu.Lock()
	s.items[it.ID] = it
	s.mu.Unlock()
}

// AddSubmission appends a mission submission.
func (s *Store) AddSubmission(sub domain.MissionSubmission) {
	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	s.mu.Unlock()
}

// AddRedemption appends a redemption log entry.
func (s *Store) AddRedemption(r domain.RedeemedItem) {
	s.mu.Lock()
	s.redemptions = append(s.redemptions, r)
	s.mu.Unlock()
}

// AddQueueEntry appends a live queue entry.
func (s *Store) AddQueueEntry(q domain.QueueEntry) {
	s.mu.Lock()
	s.queue = append(s.queue, q)
	s.mu.Unlock()
}

// ─── domain.Store ───────────────────────────────────────────────────────────

// GetUser returns a copy of the user or domain.ErrUserNotFound.
func (s *Store) GetUser(id string) (*domain.UserEconomyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers() ([]domain.UserEconomyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserEconomyState, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateUser replaces an existing user record.
func (s *Store) UpdateUser(u domain.UserEconomyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	s.users[u.ID] = u
	return nil
}

// InsertTransaction appends to the transaction log.
func (s *Store) InsertTransaction(tx domain.Transaction) error {
	s.mu.Lock()
	s.transactions = append(s.transactions, tx)
	s.mu.Unlock()
	return nil
}

// ListTransactions returns the transaction log for one user.
func (s *Store) ListTransactions(userID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ListSubmissions returns one user's mission submissions.
func (s *Store) ListSubmissions(userID string) ([]domain.MissionSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.MissionSubmission
	for _, sub := range s.submissions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

// ListAllSubmissions returns the full submission log.
func (s *Store) ListAllSubmissions() ([]domain.MissionSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.MissionSubmission(nil), s.submissions...), nil
}

// ListRedemptions returns one user's redemption log.
func (s *Store) ListRedemptions(userID string) ([]domain.RedeemedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.RedeemedItem
	for _, r := range s.redemptions {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListAllRedemptions returns the full redemption log.
func (s *Store) ListAllRedemptions() ([]domain.RedeemedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.RedeemedItem(nil), s.redemptions...), nil
}

// GetMission returns a copy of the mission or domain.ErrMissionNotFound.
func (s *Store) GetMission(id string) (*domain.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.missions[id]
	if !ok {
		return nil, domain.ErrMissionNotFound
	}
	return &m, nil
}

// GetItem returns a copy of the item or domain.ErrItemNotFound.
func (s *Store) GetItem(id string) (*domain.StoreItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &it, nil
}

// ListQueue returns the live queue snapshot.
func (s *Store) ListQueue() ([]domain.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QueueEntry(nil), s.queue...), nil
}

// InsertAuditLog appends an admin audit entry.
func (s *Store) InsertAuditLog(entry domain.AdminAuditEntry) error {
	s.mu.Lock()
	s.auditLog = append(s.auditLog, entry)
	s.mu.Unlock()
	return nil
}

// AuditLog returns a copy of the admin audit log (test inspection).
func (s *Store) AuditLog() []domain.AdminAuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AdminAuditEntry(nil), s.auditLog...)
}
