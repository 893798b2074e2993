package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/jobboard/internal/entity"
	"github.com/kalambet/jobboard/internal/storage"
)

func newTestService(t *testing.T, repo storage.Repository) *Service {
	t.Helper()
	reg, err := entity.NewRegistry(entity.Defaults()...)
	require.NoError(t, err)
	return NewService(repo, reg)
}

func TestService_Binders(t *testing.T) {
	s := newTestService(t, newMemRepo())

	for _, e := range s.Entities() {
		b, ok := s.Binder(e.Name)
		require.True(t, ok, e.Name)
		assert.Equal(t, e.Name, b.Entity().Name)
	}

	_, ok := s.Binder("unknown")
	assert.False(t, ok)
}

func TestService_Check(t *testing.T) {
	repo := newMemRepo()
	repo.put("jobs.json", storage.Record{"id": 1}, storage.Record{"id": 4})
	repo.put("news.json",
		storage.Record{"id": 2},
		storage.Record{"id": 2},
		storage.Record{"id": "x"},
		storage.Record{"id": 3, "logo_url": "stale"},
	)
	s := newTestService(t, repo)

	reports, err := s.Check(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 5)

	jobs := reports[0]
	assert.Equal(t, "jobs", jobs.Entity)
	assert.Equal(t, 2, jobs.Records)
	assert.Equal(t, int64(4), jobs.MaxID)
	assert.True(t, jobs.OK())

	news := reports[3]
	assert.Equal(t, "news", news.Entity)
	assert.Equal(t, 4, news.Records)
	assert.Equal(t, []int64{2}, news.DuplicateIDs)
	assert.Equal(t, 1, news.InvalidIDs)
	assert.Equal(t, 1, news.Aliases)
	assert.False(t, news.OK())

	assert.Equal(t, 0, reports[1].Records)
}
