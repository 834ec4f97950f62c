package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"trailer-booking/internal/domain"

	"github.com/google/uuid"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

type memoryLock struct {
	token string
	until time.Time
}

// MemoryRepository keeps form sessions in process memory. It is used when
// Redis is not configured; sessions do not survive a restart.
type MemoryRepository struct {
	mu      sync.Mutex
	forms   map[string]memoryEntry
	locks   map[string]memoryLock
	ttl     time.Duration
	lockTTL time.Duration
	now     func() time.Time
}

func NewMemoryRepository(ttl, lockTTL time.Duration) *MemoryRepository {
	return &MemoryRepository{
		forms:   make(map[string]memoryEntry),
		locks:   make(map[string]memoryLock),
		ttl:     ttl,
		lockTTL: lockTTL,
		now:     time.Now,
	}
}

func (r *MemoryRepository) LockTTL() time.Duration {
	return r.lockTTL
}

func (r *MemoryRepository) Get(ctx context.Context, sessionID string) (*domain.BookingForm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(sessionID)
}

func (r *MemoryRepository) Save(ctx context.Context, sessionID string, form *domain.BookingForm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(sessionID, form)
}

// Update holds the store's mutex from read to save, so TryLock and Save wait for it
func (r *MemoryRepository) Update(ctx context.Context, sessionID string, fn func(*domain.BookingForm, bool) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	form, err := r.get(sessionID)
	if err != nil {
		return err
	}
	if err := fn(form, r.held(sessionID)); err != nil {
		return err
	}
	return r.save(sessionID, form)
}

func (r *MemoryRepository) TryLock(ctx context.Context, sessionID string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held(sessionID) {
		return "", false, nil
	}
	token := uuid.NewString()
	r.locks[sessionID] = memoryLock{token: token, until: r.now().Add(r.lockTTL)}
	return token, true, nil
}

func (r *MemoryRepository) RefreshLock(ctx context.Context, sessionID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[sessionID]
	if !ok || lock.token != token || !r.now().Before(lock.until) {
		return false, nil
	}
	lock.until = r.now().Add(r.lockTTL)
	r.locks[sessionID] = lock
	return true, nil
}

func (r *MemoryRepository) Unlock(ctx context.Context, sessionID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, ok := r.locks[sessionID]; ok && lock.token == token {
		delete(r.locks, sessionID)
	}
	return nil
}

func (r *MemoryRepository) IsLocked(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held(sessionID), nil
}

// Sweep drops expired sessions and locks
func (r *MemoryRepository) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, entry := range r.forms {
		if now.After(entry.expiresAt) {
			delete(r.forms, id)
		}
	}
	for id, lock := range r.locks {
		if !now.Before(lock.until) {
			delete(r.locks, id)
		}
	}
}

// StartSweeper runs Sweep every interval until ctx is done
func (r *MemoryRepository) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// get, save and held expect r.mu to be held

func (r *MemoryRepository) get(sessionID string) (*domain.BookingForm, error) {
	entry, ok := r.forms[sessionID]
	if ok && r.now().After(entry.expiresAt) {
		delete(r.forms, sessionID)
		ok = false
	}
	if !ok {
		return domain.NewBookingForm(), nil
	}
	return decodeForm(entry.data)
}

func (r *MemoryRepository) save(sessionID string, form *domain.BookingForm) error {
	// Stored encoded so callers never share a form (or its windows map) with the store.
	data, err := json.Marshal(form)
	if err != nil {
		return err
	}
	r.forms[sessionID] = memoryEntry{data: data, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *MemoryRepository) held(sessionID string) bool {
	lock, ok := r.locks[sessionID]
	return ok && r.now().Before(lock.until)
}

func decodeForm(data []byte) (*domain.BookingForm, error) {
	form := domain.NewBookingForm()
	if err := json.Unmarshal(data, form); err != nil {
		return nil, err
	}
	if form.Windows == nil {
		form.Windows = map[domain.Category]domain.RentalWindow{}
	}
	return form, nil
}
