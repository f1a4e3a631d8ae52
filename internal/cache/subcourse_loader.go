package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/quiz"
)

func SubCourseKey(mainCourseID, subCourseID string) string {
	return fmt.Sprintf("subcourse:%s:%s", mainCourseID, subCourseID)
}

// SubCourseLoader serves sub-courses from the cache and falls back to next on
// a miss. Cache failures are logged and never fail a load.
type SubCourseLoader struct {
	cache  CacheService
	next   quiz.SubCourseLoader
	ttl    time.Duration
	logger *slog.Logger
}

func NewSubCourseLoader(cache CacheService, next quiz.SubCourseLoader, ttl time.Duration, logger *slog.Logger) *SubCourseLoader {
	return &SubCourseLoader{cache: cache, next: next, ttl: ttl, logger: logger}
}

func (l *SubCourseLoader) LoadSubCourse(ctx context.Context, ref quiz.CourseRef) (*models.SubCourse, error) {
	key := SubCourseKey(ref.MainCourseID, ref.SubCourseID)

	var cached models.SubCourse
	err := l.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		l.logger.Warn("Sub-course cache read failed", "key", key, "error", err)
	}

	subCourse, err := l.next.LoadSubCourse(ctx, ref)
	if err != nil {
		return nil, err
	}
	if subCourse == nil {
		return nil, nil
	}

	if err := l.cache.Set(ctx, key, subCourse, l.ttl); err != nil {
		l.logger.Warn("Sub-course cache write failed", "key", key, "error", err)
	}
	return subCourse, nil
}

// Invalidate drops one cached sub-course. An empty subCourseID drops every
// sub-course of the main course.
func (l *SubCourseLoader) Invalidate(ctx context.Context, mainCourseID, subCourseID string) error {
	if subCourseID == "" {
		return l.cache.DeletePattern(ctx, SubCourseKey(mainCourseID, "*"))
	}
	return l.cache.Delete(ctx, SubCourseKey(mainCourseID, subCourseID))
}
