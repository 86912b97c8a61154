package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/lectura-ai/backend/internal/cache"
	"github.com/lectura-ai/backend/internal/services"
)

type job struct {
	videoID   string
	videoPath string
	done      chan error
}

// ProcessorPool runs uploaded videos through the pipeline and indexer
// on a fixed set of workers behind a bounded queue. Runs are detached
// from the intake context: once a job is picked up, the video reaches a
// terminal status even if the server is shutting down. Concurrent jobs
// for the same video collapse into one run.
type ProcessorPool struct {
	Pipeline services.PipelineService
	Indexer  services.IndexService
	Tracker  services.StatusTracker
	Cache    cache.Cache

	NumWorkers int
	QueueSize  int

	Logger *logrus.Logger

	queue chan job
	stop  chan struct{}
	group singleflight.Group
}

func (p *ProcessorPool) Start(ctx context.Context) error {
	if p.Pipeline == nil || p.Indexer == nil || p.Tracker == nil {
		return errors.New("ProcessorPool missing dependency: Pipeline/Indexer/Tracker must be set")
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.QueueSize <= 0 {
		p.QueueSize = 16
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	p.queue = make(chan job, p.QueueSize)
	p.stop = make(chan struct{})
	go func() {
		<-ctx.Done()
		close(p.stop)
	}()

	for i := 0; i < p.NumWorkers; i++ {
		go p.worker(ctx)
	}
	return nil
}

// Enqueue submits a stored upload for processing. The returned channel
// receives the run's outcome and is then closed; callers may ignore
// it. A full queue is reported as an error rather than blocking the
// upload request.
func (p *ProcessorPool) Enqueue(videoID, videoPath string) (<-chan error, error) {
	if p.queue == nil {
		return nil, errors.New("processor pool not started")
	}
	select {
	case <-p.stop:
		return nil, errors.New("processor pool stopped")
	default:
	}

	j := job{videoID: videoID, videoPath: videoPath, done: make(chan error, 1)}
	select {
	case p.queue <- j:
		return j.done, nil
	default:
		return nil, errors.New("processing queue is full")
	}
}

func (p *ProcessorPool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.queue:
			p.runJob(j)
		}
	}
}

func (p *ProcessorPool) runJob(j job) {
	log := p.Logger.WithFields(logrus.Fields{
		"component": "processor",
		"video_id":  j.videoID,
	})
	start := time.Now()

	// Detached from the intake context so a started run always
	// finishes.
	runCtx := context.Background()

	_, err, shared := p.group.Do(j.videoID, func() (any, error) {
		return nil, p.process(runCtx, j.videoID, j.videoPath)
	})
	if shared {
		log.Debug("joined in-flight run for video")
	}

	// The run ended in a terminal status either way; cached reads from
	// a previous run are stale now.
	_ = cache.InvalidateVideo(runCtx, p.Cache, j.videoID)

	if err != nil {
		log.WithError(err).WithField("elapsed_seconds", time.Since(start).Seconds()).Error("video processing failed")
	} else {
		log.WithField("elapsed_seconds", time.Since(start).Seconds()).Info("video processing completed")
	}

	j.done <- err
	close(j.done)
}

func (p *ProcessorPool) process(ctx context.Context, videoID, videoPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.WithField("video_id", videoID).Errorf("processing panic: %v", r)
			_ = p.Tracker.Fail(ctx, videoID, "internal processing error")
			err = fmt.Errorf("processing panic: %v", r)
		}
	}()

	if err := p.Pipeline.Run(ctx, videoID, videoPath); err != nil {
		return err
	}
	return p.Indexer.Index(ctx, videoID)
}
