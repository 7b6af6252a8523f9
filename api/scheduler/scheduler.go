package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/databases"
)

// sweepTimeout bounds a single sweep run
const sweepTimeout = 10 * time.Minute

// Scheduler handles periodic background jobs for the evidence store
type Scheduler struct {
	cron      *cron.Cron
	Evidence  databases.EvidenceDatabase
	UploadDir string
	Grace     time.Duration
	Schedule  string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(evidence databases.EvidenceDatabase, uploadDir, schedule string, grace time.Duration) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		Evidence:  evidence,
		UploadDir: uploadDir,
		Grace:     grace,
		Schedule:  schedule,
	}
}

// Start registers the orphan sweep and starts the cron runner
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.Schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to register orphan sweep %q: %w", s.Schedule, err)
	}
	s.cron.Start()
	zap.S().Infow("evidence scheduler started", "schedule", s.Schedule, "grace", s.Grace.String())
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("evidence scheduler stopped")
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	removed, err := SweepOrphans(ctx, s.UploadDir, s.Grace, s.Evidence, time.Now())
	if err != nil {
		zap.S().Errorw("orphan sweep failed", "dir", s.UploadDir, "removed", len(removed), "error", err)
		return
	}
	zap.S().Infow("orphan sweep complete", "dir", s.UploadDir, "removed", len(removed))
}

// SweepOrphans deletes files directly under dir that were last modified more than grace
// before now and that no evidence record references. Files still referenced are never touched.
// It returns the names of the removed files.
func SweepOrphans(ctx context.Context, dir string, grace time.Duration, evidence databases.EvidenceDatabase, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read upload dir: %w", err)
	}

	cutoff := now.Add(-grace)
	var removed []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		referenced, err := isReferenced(ctx, evidence, path)
		if err != nil {
			return removed, fmt.Errorf("failed to check references for %s: %w", entry.Name(), err)
		}
		if referenced {
			continue
		}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.S().Warnw("failed to remove orphaned upload", "path", path, "error", err)
			continue
		}
		zap.S().Infow("removed orphaned upload", "path", path, "modTime", info.ModTime())
		removed = append(removed, entry.Name())
	}
	return removed, nil
}

func isReferenced(ctx context.Context, evidence databases.EvidenceDatabase, path string) (bool, error) {
	paths := []string{path}
	if abs, err := filepath.Abs(path); err == nil && abs != path {
		paths = append(paths, abs)
	}
	n, err := evidence.CountDocuments(ctx, bson.M{"filePath": bson.M{"$in": paths}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
