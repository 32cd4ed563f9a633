package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/models"
	"github.com/valokuva/cms-admin-api/pkg/config"
	"github.com/valokuva/cms-admin-api/pkg/jobs"
	"github.com/valokuva/cms-admin-api/pkg/storage"
)

const (
	publishBatchSize = 25
	thumbSweepBatch  = 50
)

type publishProcessor interface {
	ProcessDue(ctx context.Context, now time.Time, limit int) (published, failed int)
}

type consistencySweeper interface {
	Sweep(ctx context.Context) (*models.ConsistencyReport, error)
}

type missingThumbLister interface {
	ListImagesWithoutThumb(ctx context.Context, limit int) ([]models.SiteFile, error)
}

type thumbGenerator interface {
	Generate(ctx context.Context, file *models.SiteFile, sourcePath string) (*models.FileThumb, error)
}

// Scheduler drives the recurring background work: due publications, the
// permission consistency sweep and regeneration of missing thumbnails.
// Publication runs go through a single-worker queue so site deployments from
// the scheduler never interleave.
type Scheduler struct {
	cfg       config.ScheduleConfig
	cron      *cron.Cron
	publish   *jobs.Queue
	processor publishProcessor
	sweeper   consistencySweeper
	files     missingThumbLister
	thumbs    thumbGenerator
	store     *storage.BucketStorage
	logger    *zap.Logger
}

// NewScheduler wires the cron entries. Nothing runs until Start.
func NewScheduler(cfg config.ScheduleConfig, processor publishProcessor, sweeper consistencySweeper,
	files missingThumbLister, thumbs thumbGenerator, store *storage.BucketStorage, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		cfg: cfg,
		cron: cron.New(
			cron.WithChain(
				cron.Recover(cron.DefaultLogger),
				cron.SkipIfStillRunning(cron.DefaultLogger),
			),
		),
		processor: processor,
		sweeper:   sweeper,
		files:     files,
		thumbs:    thumbs,
		store:     store,
		logger:    logger,
	}
	s.publish = jobs.NewQueue("publish", s.handlePublishJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// Start registers the cron entries and begins ticking. A disabled config makes
// Start a no-op so a second instance can run API-only.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("schedules disabled")
		return nil
	}

	s.publish.Start(ctx)

	if _, err := s.cron.AddFunc(every(s.cfg.PublishInterval), s.enqueuePublishRun); err != nil {
		return fmt.Errorf("register publish trigger: %w", err)
	}
	if _, err := s.cron.AddFunc(every(s.cfg.ConsistencyInterval), func() { s.runConsistencySweep(ctx) }); err != nil {
		return fmt.Errorf("register consistency sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(every(s.cfg.ThumbSweepInterval), func() { s.runThumbSweep(ctx) }); err != nil {
		return fmt.Errorf("register thumbnail sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("schedules started",
		zap.Duration("publish_interval", s.cfg.PublishInterval),
		zap.Duration("consistency_interval", s.cfg.ConsistencyInterval),
		zap.Duration("thumb_sweep_interval", s.cfg.ThumbSweepInterval))
	return nil
}

// Stop halts the cron loop and drains the publish queue.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.publish.Stop()
}

func (s *Scheduler) enqueuePublishRun() {
	err := s.publish.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "publish-due",
	})
	if err != nil {
		s.logger.Warn("failed to enqueue publish run", zap.Error(err))
	}
}

func (s *Scheduler) handlePublishJob(ctx context.Context, job jobs.Job) error {
	published, failed := s.processor.ProcessDue(ctx, time.Now().UTC(), publishBatchSize)
	if published > 0 || failed > 0 {
		s.logger.Info("processed due publications",
			zap.Int("published", published),
			zap.Int("failed", failed))
	}
	return nil
}

func (s *Scheduler) runConsistencySweep(ctx context.Context) {
	report, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Error("consistency sweep failed", zap.Error(err))
		return
	}
	if report.Clean() {
		s.logger.Debug("consistency sweep clean")
	}
}

// runThumbSweep regenerates thumbnails for image files that lost or never got
// one, for example when generation failed during ingest.
func (s *Scheduler) runThumbSweep(ctx context.Context) {
	files, err := s.files.ListImagesWithoutThumb(ctx, thumbSweepBatch)
	if err != nil {
		s.logger.Error("thumbnail sweep listing failed", zap.Error(err))
		return
	}
	regenerated := 0
	for i := range files {
		file := &files[i]
		source, err := s.sourcePath(file)
		if err != nil {
			s.logger.Warn("thumbnail sweep skipped file",
				zap.Int64("file_id", file.ID), zap.Error(err))
			continue
		}
		if _, err := s.thumbs.Generate(ctx, file, source); err != nil {
			s.logger.Warn("thumbnail regeneration failed",
				zap.Int64("file_id", file.ID), zap.Error(err))
			continue
		}
		regenerated++
	}
	if len(files) > 0 {
		s.logger.Info("thumbnail sweep finished",
			zap.Int("candidates", len(files)),
			zap.Int("regenerated", regenerated))
	}
}

func (s *Scheduler) sourcePath(file *models.SiteFile) (string, error) {
	bucketDir, err := s.store.BucketDir(string(file.FileClass))
	if err != nil {
		return "", err
	}
	return storage.ResolveWithin(bucketDir, file.FilePath, file.FileName)
}

func every(interval time.Duration) string {
	if interval <= 0 {
		interval = time.Hour
	}
	return fmt.Sprintf("@every %s", interval)
}
