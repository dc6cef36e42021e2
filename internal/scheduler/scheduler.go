package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/trustai/trust-server/internal/scratch"
)

// Directories this old only exist when a request crashed before its
// deferred cleanup ran.
const staleScratchAge = 2 * time.Hour

// HealthChecker reports reachability of the completion backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Scheduler manages background maintenance jobs
type Scheduler struct {
	scheduler gocron.Scheduler
	workspace *scratch.Workspace
	llm       HealthChecker
	timezone  *time.Location
}

// New creates a new scheduler
func New(workspace *scratch.Workspace, llm HealthChecker, timezone string) (*Scheduler, error) {
	tz, err := time.LoadLocation(timezone)
	if err != nil {
		tz = time.UTC
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(tz))
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: s,
		workspace: workspace,
		llm:       llm,
		timezone:  tz,
	}, nil
}

// Start starts the scheduler and registers all jobs
func (s *Scheduler) Start() error {
	// Sweep stale scratch directories every hour
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(s.sweepScratch),
		gocron.WithName("sweep-scratch"),
	)
	if err != nil {
		return err
	}

	// Health check OpenAI every 5 minutes
	_, err = s.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(s.healthCheck),
		gocron.WithName("health-check"),
	)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	log.Println("Scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) sweepScratch() {
	if s.workspace == nil {
		return
	}
	removed, err := s.workspace.SweepStale(staleScratchAge)
	if err != nil {
		log.Printf("Error sweeping scratch directories: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Swept %d stale scratch directories", removed)
	}
}

func (s *Scheduler) healthCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.llm.HealthCheck(ctx); err != nil {
		log.Printf("Health check failed - OpenAI unreachable: %v", err)
	}
}

// SweepNow triggers a scratch sweep immediately (for testing)
func (s *Scheduler) SweepNow() {
	s.sweepScratch()
}
