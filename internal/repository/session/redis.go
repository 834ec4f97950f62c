package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trailer-booking/internal/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	formKeyPrefix = "booking:form:"
	lockKeyPrefix = "booking:lock:"

	maxUpdateAttempts = 5
)

// The lock value is the holder's token; only the holder may extend or release it.
// KEYS[1] = lock key, ARGV[1] = token, ARGV[2] = TTL in milliseconds
var (
	refreshLockScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)
	unlockScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)
)

// ErrUpdateContention means a form kept changing under an update
var ErrUpdateContention = errors.New("form session changed concurrently")

// RedisRepository keeps form sessions in Redis so every API instance sees the
// same form and the same submit lock.
type RedisRepository struct {
	client  *goredis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisRepository(client *goredis.Client, ttl, lockTTL time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl, lockTTL: lockTTL}
}

func (r *RedisRepository) LockTTL() time.Duration {
	return r.lockTTL
}

func (r *RedisRepository) Get(ctx context.Context, sessionID string) (*domain.BookingForm, error) {
	return readForm(r.client.Get(ctx, formKeyPrefix+sessionID))
}

// Save stores the form and restarts its idle TTL
func (r *RedisRepository) Save(ctx context.Context, sessionID string, form *domain.BookingForm) error {
	data, err := json.Marshal(form)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, formKeyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set form: %w", err)
	}
	return nil
}

// Update watches the form and lock keys; a write to either between the read
// and the save makes the transaction fail, and fn runs again on fresh state.
func (r *RedisRepository) Update(ctx context.Context, sessionID string, fn func(*domain.BookingForm, bool) error) error {
	formKey, lockKey := formKeyPrefix+sessionID, lockKeyPrefix+sessionID

	txf := func(tx *goredis.Tx) error {
		form, err := readForm(tx.Get(ctx, formKey))
		if err != nil {
			return err
		}
		locked, err := tx.Exists(ctx, lockKey).Result()
		if err != nil {
			return fmt.Errorf("redis lock check: %w", err)
		}
		if err := fn(form, locked > 0); err != nil {
			return err
		}
		data, err := json.Marshal(form)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, formKey, data, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.client.Watch(ctx, txf, formKey, lockKey)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return ErrUpdateContention
}

// TryLock sets the lock key only if absent; the TTL frees it if the holder dies
func (r *RedisRepository) TryLock(ctx context.Context, sessionID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+sessionID, token, r.lockTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (r *RedisRepository) RefreshLock(ctx context.Context, sessionID, token string) (bool, error) {
	n, err := refreshLockScript.Run(ctx, r.client, []string{lockKeyPrefix + sessionID}, token, r.lockTTL.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis refresh lock: %w", err)
	}
	return n == 1, nil
}

func (r *RedisRepository) Unlock(ctx context.Context, sessionID, token string) error {
	if err := unlockScript.Run(ctx, r.client, []string{lockKeyPrefix + sessionID}, token).Err(); err != nil {
		return fmt.Errorf("redis unlock: %w", err)
	}
	return nil
}

func (r *RedisRepository) IsLocked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, lockKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock check: %w", err)
	}
	return n > 0, nil
}

func readForm(cmd *goredis.StringCmd) (*domain.BookingForm, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.NewBookingForm(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get form: %w", err)
	}
	return decodeForm(data)
}
