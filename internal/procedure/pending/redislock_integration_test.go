//go:build integration

package pending_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	calendar "tramite/internal/calendar/models"
	"tramite/internal/procedure/pending"
	"tramite/pkg/testutil/containers"
)

// slowStore blocks each release so overlapping runs are observable.
type slowStore struct {
	calls atomic.Int32
	delay time.Duration
}

func (s *slowStore) ReleasePending(context.Context, time.Time) (int, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	return 0, nil
}

type inSchedule struct{}

func (inSchedule) Classify(context.Context) (calendar.Result, error) { return calendar.InSchedule, nil }

type RedisLockerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	locker *pending.RedisLocker
}

func TestRedisLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockerSuite))
}

func (s *RedisLockerSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.locker = pending.NewRedisLocker(s.redis.Client.Locker)
}

func (s *RedisLockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockerSuite) TestSecondObtainIsLocked() {
	ctx := context.Background()
	release, err := s.locker.Obtain(ctx, "tramite:lock:test", time.Minute)
	s.Require().NoError(err)
	keys, err := s.redis.Keys(ctx, "tramite:lock:*")
	s.Require().NoError(err)
	s.Equal([]string{"tramite:lock:test"}, keys)

	_, err = s.locker.Obtain(ctx, "tramite:lock:test", time.Minute)
	s.ErrorIs(err, pending.ErrLocked)

	s.Require().NoError(release(ctx))
	keys, err = s.redis.Keys(ctx, "tramite:lock:*")
	s.Require().NoError(err)
	s.Empty(keys)
	again, err := s.locker.Obtain(ctx, "tramite:lock:test", time.Minute)
	s.Require().NoError(err)
	s.NoError(again(ctx))
}

func (s *RedisLockerSuite) TestReleaseAfterExpiryIsQuiet() {
	ctx := context.Background()
	release, err := s.locker.Obtain(ctx, "tramite:lock:expiring", 50*time.Millisecond)
	s.Require().NoError(err)
	time.Sleep(150 * time.Millisecond)
	s.NoError(release(ctx))
}

// TestOverlappingRunsReleaseOnce verifies replicas sharing the lock never run
// the same batch concurrently.
func (s *RedisLockerSuite) TestOverlappingRunsReleaseOnce() {
	store := &slowStore{delay: 300 * time.Millisecond}
	const replicas = 5

	var wg sync.WaitGroup
	for range replicas {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := pending.New(store, inSchedule{}, pending.WithLocker(s.locker, time.Minute))
			_, err := w.RunOnce(context.Background())
			s.NoError(err)
		}()
	}
	wg.Wait()
	s.Equal(int32(1), store.calls.Load())
}
