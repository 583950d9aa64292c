package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// countingJob считает запуски
type countingJob struct {
	runs atomic.Int64
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return nil
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	job := &countingJob{}
	s.AddJob(job)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Hour)
		close(done)
	}()

	// Задачи запускаются сразу при старте, не дожидаясь первого тика
	deadline := time.After(2 * time.Second)
	for job.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("задача не запустилась при старте планировщика")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("планировщик не остановился после отмены контекста")
	}

	if job.runs.Load() != 1 {
		t.Errorf("ожидался один запуск задачи, получено %d", job.runs.Load())
	}
}
