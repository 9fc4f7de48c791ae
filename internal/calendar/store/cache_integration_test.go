//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tramite/internal/calendar/models"
	"tramite/internal/calendar/store"
	"tramite/internal/platform/postgres"
	"tramite/pkg/testutil/containers"
)

const snapshotKey = "tramite:calendar:snapshot"

type CachedStoreSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	postgres *containers.PostgresContainer
	cached   *store.CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
}

func (s *CachedStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.redis.FlushAll(ctx))
	s.Require().NoError(s.postgres.TruncateTables(ctx, "work_schedules", "holidays"))
	s.cached = store.NewCached(store.NewPostgres(s.postgres.DB), s.redis.Client.Client, time.Minute, nil)
}

func (s *CachedStoreSuite) TestSnapshotIsCached() {
	ctx := context.Background()
	s.Require().NoError(s.cached.ReplaceSchedules(ctx, []models.WorkSchedule{
		{Weekday: models.Monday, Start: 8 * 3600, End: 17 * 3600, IsActive: true},
	}))

	cal, err := s.cached.Snapshot(ctx)
	s.Require().NoError(err)
	s.Len(cal.Schedules, 1)

	ttl, err := s.redis.Client.TTL(ctx, snapshotKey).Result()
	s.Require().NoError(err)
	s.Positive(ttl)

	again, err := s.cached.Snapshot(ctx)
	s.Require().NoError(err)
	s.Equal(cal.Schedules[0].Start, again.Schedules[0].Start)
}

func (s *CachedStoreSuite) TestWritesInvalidate() {
	ctx := context.Background()
	_, err := s.cached.Snapshot(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), s.redis.Client.Exists(ctx, snapshotKey).Val())

	h := &models.Holiday{Date: models.Date{Year: 2025, Month: time.July, Day: 28}, Description: "Fiestas Patrias", IsActive: true}
	s.Require().NoError(s.cached.CreateHoliday(ctx, h))
	s.Equal(int64(0), s.redis.Client.Exists(ctx, snapshotKey).Val())

	cal, err := s.cached.Snapshot(ctx)
	s.Require().NoError(err)
	s.Require().Len(cal.Holidays, 1)
	s.Equal("Fiestas Patrias", cal.Holidays[0].Description)

	s.Require().NoError(s.cached.DeleteHoliday(ctx, h.ID))
	s.Equal(int64(0), s.redis.Client.Exists(ctx, snapshotKey).Val())
}

func (s *CachedStoreSuite) TestUndecodableEntryFallsBack() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.Set(ctx, snapshotKey, "not json", time.Minute).Err())

	cal, err := s.cached.Snapshot(ctx)
	s.Require().NoError(err)
	s.Empty(cal.Schedules)
}
