package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
)

// TTLs tuned to how long content stays relevant within one sitting. Section
// content for a subject the student abandoned should not linger.
const (
	sectionContentTTL   = 2 * time.Hour
	progressSnapshotTTL = 24 * time.Hour
)

// ContentCache stores generated journey content and progress snapshots so a
// reconnecting client does not force a fresh agent round-trip for content
// that was already produced this sitting.
type ContentCache struct {
	cache CacheService
}

func NewContentCache(cache CacheService) *ContentCache {
	return &ContentCache{cache: cache}
}

// Section keys carry the plan ID so content generated for a finished or
// abandoned plan can never serve a new journey, even in the same subject.
func sectionKey(studentID, planID string, sectionIndex int) string {
	return fmt.Sprintf("journey:section:%s:%s:%d", studentID, planID, sectionIndex)
}

func progressKey(studentID string) string {
	return fmt.Sprintf("journey:progress:%s", studentID)
}

func (c *ContentCache) PutSectionContent(ctx context.Context, studentID, planID string, content *models.SectionContent) error {
	return c.cache.Set(ctx, sectionKey(studentID, planID, content.SectionIndex), content, sectionContentTTL)
}

func (c *ContentCache) GetSectionContent(ctx context.Context, studentID, planID string, sectionIndex int) (*models.SectionContent, error) {
	var content models.SectionContent
	if err := c.cache.Get(ctx, sectionKey(studentID, planID, sectionIndex), &content); err != nil {
		return nil, err
	}
	return &content, nil
}

func (c *ContentCache) PutProgressSnapshot(ctx context.Context, studentID string, snapshot models.ProgressUpdate) error {
	return c.cache.Set(ctx, progressKey(studentID), snapshot, progressSnapshotTTL)
}

func (c *ContentCache) GetProgressSnapshot(ctx context.Context, studentID string) (*models.ProgressUpdate, error) {
	var snapshot models.ProgressUpdate
	if err := c.cache.Get(ctx, progressKey(studentID), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// InvalidateJourney drops all cached section content for a student. Called
// when a journey ends or the subject switches so stale content cannot
// resurface in the next journey.
func (c *ContentCache) InvalidateJourney(ctx context.Context, studentID string) error {
	return c.cache.DeletePattern(ctx, fmt.Sprintf("journey:section:%s:*", studentID))
}
