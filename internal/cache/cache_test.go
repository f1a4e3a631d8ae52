package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	values map[string][]byte
	err    error
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string][]byte)}
}

func (m *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = payload
	return nil
}

func (m *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.err != nil {
		return m.err
	}
	payload, ok := m.values[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *mapCache) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *mapCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

type countingLoader struct {
	calls     int
	subCourse *models.SubCourse
}

func (c *countingLoader) LoadSubCourse(ctx context.Context, ref quiz.CourseRef) (*models.SubCourse, error) {
	c.calls++
	return c.subCourse, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestSubCourseLoader_CachesAfterFirstLoad(t *testing.T) {
	ctx := context.Background()
	next := &countingLoader{subCourse: &models.SubCourse{
		ID:           "s1",
		MainCourseID: "m1",
		Name:         "Safety basics",
		Questions: []models.Question{
			{Text: "Q1", Answers: []models.Answer{{Text: "a", Correct: true}, {Text: "b"}}},
		},
	}}
	loader := NewSubCourseLoader(newMapCache(), next, time.Minute, testLogger())
	ref := quiz.CourseRef{MainCourseID: "m1", SubCourseID: "s1"}

	first, err := loader.LoadSubCourse(ctx, ref)
	require.NoError(t, err)
	second, err := loader.LoadSubCourse(ctx, ref)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Name, second.Name)
	require.Len(t, second.Questions, 1)
	assert.True(t, second.Questions[0].Answers[0].Correct)
}

func TestSubCourseLoader_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	next := &countingLoader{subCourse: &models.SubCourse{ID: "s1", MainCourseID: "m1"}}
	loader := NewSubCourseLoader(cache, next, time.Minute, testLogger())

	_, err := loader.LoadSubCourse(ctx, quiz.CourseRef{MainCourseID: "m1", SubCourseID: "s1"})
	require.NoError(t, err)
	_, err = loader.LoadSubCourse(ctx, quiz.CourseRef{MainCourseID: "m1", SubCourseID: "s2"})
	require.NoError(t, err)
	assert.Len(t, cache.values, 2)

	require.NoError(t, loader.Invalidate(ctx, "m1", "s1"))
	assert.Len(t, cache.values, 1)

	require.NoError(t, loader.Invalidate(ctx, "m1", ""))
	assert.Empty(t, cache.values)
}

func TestSubCourseLoader_CacheFailureFallsThrough(t *testing.T) {
	cache := newMapCache()
	cache.err = errors.New("redis unavailable")
	next := &countingLoader{subCourse: &models.SubCourse{ID: "s1"}}
	loader := NewSubCourseLoader(cache, next, time.Minute, testLogger())

	subCourse, err := loader.LoadSubCourse(context.Background(), quiz.CourseRef{MainCourseID: "m1", SubCourseID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", subCourse.ID)
}

func TestSubCourseLoader_NilIsNotCached(t *testing.T) {
	cache := newMapCache()
	loader := NewSubCourseLoader(cache, &countingLoader{}, time.Minute, testLogger())

	subCourse, err := loader.LoadSubCourse(context.Background(), quiz.CourseRef{MainCourseID: "m1", SubCourseID: "missing"})
	require.NoError(t, err)
	assert.Nil(t, subCourse)
	assert.Empty(t, cache.values)
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	session := &StoredSession{ID: "abc", OwnerID: "u1", Snapshot: quiz.Snapshot{State: quiz.StateLoading}}

	require.NoError(t, store.Create(ctx, session))
	assert.ErrorIs(t, store.Create(ctx, session), ErrSessionConflict)

	updated, err := store.Update(ctx, "abc", func(s *StoredSession) error {
		s.UserName = "Dana"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana", updated.UserName)

	failing := errors.New("rejected")
	_, err = store.Update(ctx, "abc", func(s *StoredSession) error {
		s.UserName = "changed"
		return failing
	})
	assert.ErrorIs(t, err, failing)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.UserName)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Update(ctx, "abc", func(*StoredSession) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
