package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"trailer-booking/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ domain.FormSessionRepository = (*MemoryRepository)(nil)
	_ domain.FormSessionRepository = (*RedisRepository)(nil)
)

func sampleForm() *domain.BookingForm {
	form := domain.NewBookingForm()
	form.Contact = domain.ContactInfo{Name: "Jane Doe", Email: "jane@example.com", Phone: "405-555-0100"}
	form.Category = domain.CategoryEnclosed
	form.Size = "Enclosed Trailer"
	form.Windows[domain.CategoryEnclosed] = domain.RentalWindow{PickupDate: "2026-11-02", PickupTime: "09:00"}
	form.Windows[domain.CategoryUtility] = domain.RentalWindow{ReturnTime: "12:00"}
	form.DropOff = domain.LocationChoice{Option: domain.DefaultDeliveryOption, Address: "123 Main St"}
	form.Submission = domain.SubmissionState{Message: "Booking failed: timeout", Kind: domain.MessageError}
	return form
}

// exerciseRepository runs the behavior both stores must share
func exerciseRepository(t *testing.T, repo domain.FormSessionRepository) {
	ctx := context.Background()

	t.Run("Unknown session yields a fresh form", func(t *testing.T) {
		form, err := repo.Get(ctx, "unknown")
		require.NoError(t, err)
		assert.Equal(t, domain.NewBookingForm(), form)
	})

	t.Run("Saved form round trips", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "s1", sampleForm()))
		form, err := repo.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, sampleForm(), form)
	})

	t.Run("Loaded forms are independent copies", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "s2", sampleForm()))
		form, err := repo.Get(ctx, "s2")
		require.NoError(t, err)
		form.Windows[domain.CategoryEnclosed] = domain.RentalWindow{}

		again, err := repo.Get(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, "2026-11-02", again.Windows[domain.CategoryEnclosed].PickupDate)
	})

	t.Run("Update saves what fn changed", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "s3", sampleForm()))
		err := repo.Update(ctx, "s3", func(form *domain.BookingForm, locked bool) error {
			assert.False(t, locked)
			assert.Equal(t, "Jane Doe", form.Contact.Name)
			form.Contact.Name = "John Roe"
			return nil
		})
		require.NoError(t, err)

		form, err := repo.Get(ctx, "s3")
		require.NoError(t, err)
		assert.Equal(t, "John Roe", form.Contact.Name)
	})

	t.Run("Update saves nothing when fn fails", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "s6", sampleForm()))
		refused := errors.New("refused")
		err := repo.Update(ctx, "s6", func(form *domain.BookingForm, locked bool) error {
			form.Contact.Name = "John Roe"
			return refused
		})
		assert.ErrorIs(t, err, refused)

		form, err := repo.Get(ctx, "s6")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", form.Contact.Name)
	})

	t.Run("Update sees the submit lock", func(t *testing.T) {
		token, ok, err := repo.TryLock(ctx, "s7")
		require.NoError(t, err)
		require.True(t, ok)

		var sawLock bool
		require.NoError(t, repo.Update(ctx, "s7", func(_ *domain.BookingForm, locked bool) error {
			sawLock = locked
			return nil
		}))
		assert.True(t, sawLock)
		require.NoError(t, repo.Unlock(ctx, "s7", token))
	})

	t.Run("Lock is exclusive until released", func(t *testing.T) {
		token, ok, err := repo.TryLock(ctx, "s4")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NotEmpty(t, token)

		locked, err := repo.IsLocked(ctx, "s4")
		require.NoError(t, err)
		assert.True(t, locked)

		_, ok, err = repo.TryLock(ctx, "s4")
		require.NoError(t, err)
		assert.False(t, ok)

		_, other, err := repo.TryLock(ctx, "s5")
		require.NoError(t, err)
		assert.True(t, other)

		require.NoError(t, repo.Unlock(ctx, "s4", "someone-else"))
		locked, err = repo.IsLocked(ctx, "s4")
		require.NoError(t, err)
		assert.True(t, locked, "only the holder releases the lock")

		held, err := repo.RefreshLock(ctx, "s4", token)
		require.NoError(t, err)
		assert.True(t, held)
		held, err = repo.RefreshLock(ctx, "s4", "someone-else")
		require.NoError(t, err)
		assert.False(t, held)

		require.NoError(t, repo.Unlock(ctx, "s4", token))
		locked, err = repo.IsLocked(ctx, "s4")
		require.NoError(t, err)
		assert.False(t, locked)

		_, ok, err = repo.TryLock(ctx, "s4")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository(time.Hour, time.Minute))
}

func TestMemoryRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(time.Hour, 2*time.Minute)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Save(ctx, "s1", sampleForm()))
	first, ok, err := repo.TryLock(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(time.Minute)
	held, err := repo.RefreshLock(ctx, "s1", first)
	require.NoError(t, err)
	require.True(t, held)

	now = now.Add(90 * time.Second)
	locked, err := repo.IsLocked(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, locked, "refresh restarts the TTL")

	now = now.Add(3 * time.Minute)
	locked, err = repo.IsLocked(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, locked, "lock must lapse after its TTL")

	held, err = repo.RefreshLock(ctx, "s1", first)
	require.NoError(t, err)
	assert.False(t, held, "a lapsed lock cannot be revived")

	second, ok, err := repo.TryLock(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Unlock(ctx, "s1", first))
	held, err = repo.RefreshLock(ctx, "s1", second)
	require.NoError(t, err)
	assert.True(t, held, "a stale holder must not release the new lock")

	now = now.Add(time.Hour)
	repo.Sweep()
	assert.Empty(t, repo.forms)
	assert.Empty(t, repo.locks)

	form, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, form.Contact.Name)
}

func TestRedisRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseRepository(t, NewRedisRepository(client, time.Hour, time.Minute))
}

func TestRedisRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewRedisRepository(client, 30*time.Minute, time.Minute)

	require.NoError(t, repo.Save(ctx, "s1", sampleForm()))
	first, ok, err := repo.TryLock(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(40 * time.Second)
	held, err := repo.RefreshLock(ctx, "s1", first)
	require.NoError(t, err)
	require.True(t, held)
	mr.FastForward(40 * time.Second)
	locked, err := repo.IsLocked(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, locked, "refresh restarts the TTL")

	mr.FastForward(2 * time.Minute)
	locked, err = repo.IsLocked(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, locked)

	second, ok, err := repo.TryLock(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Unlock(ctx, "s1", first))
	value, err := mr.Get(lockKeyPrefix + "s1")
	require.NoError(t, err)
	assert.Equal(t, second, value, "a stale holder must not release the new lock")

	mr.FastForward(time.Hour)
	form, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.NewBookingForm(), form)
}

func TestRedisRepositoryUpdateRetriesOnConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewRedisRepository(client, time.Hour, time.Minute)
	require.NoError(t, repo.Save(ctx, "s1", sampleForm()))

	// A submission takes the lock and clears the form between the read and the save
	var seen []bool
	err := repo.Update(ctx, "s1", func(form *domain.BookingForm, locked bool) error {
		seen = append(seen, locked)
		if len(seen) == 1 {
			_, ok, err := repo.TryLock(ctx, "s1")
			require.NoError(t, err)
			require.True(t, ok)
			require.NoError(t, repo.Save(ctx, "s1", domain.NewBookingForm()))
		}
		if locked {
			return errors.New("in flight")
		}
		form.SpecialRequests = "late edit"
		return nil
	})

	assert.EqualError(t, err, "in flight")
	assert.Equal(t, []bool{false, true}, seen)
	form, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, form.Contact.Name)
	assert.Empty(t, form.SpecialRequests)
}

func TestRedisRepositoryError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewRedisRepository(client, time.Hour, time.Minute)

	mr.SetError("ERR simulated outage")
	_, err := repo.Get(context.Background(), "s1")
	assert.Error(t, err)
	_, _, err = repo.TryLock(context.Background(), "s1")
	assert.Error(t, err)
	err = repo.Update(context.Background(), "s1", func(*domain.BookingForm, bool) error { return nil })
	assert.Error(t, err)
}
