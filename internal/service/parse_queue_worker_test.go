package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"takeoff/internal/domain"
	"takeoff/internal/service"
	"takeoff/mocks"
)

func TestParseQueueWorker_DispatchesClaimedJobs(t *testing.T) {
	job := domain.ParseJob{ID: uuid.New(), Status: domain.JobStatusProcessing, Attempts: 1}

	jobRepo := new(mocks.MockParseJobRepo)
	jobRepo.On("ClaimQueued", mock.Anything, 2).Return([]domain.ParseJob{job}, nil).Once()
	jobRepo.On("ClaimQueued", mock.Anything, mock.Anything).Return([]domain.ParseJob{}, nil)

	dispatched := make(chan struct{})
	parseService := new(mocks.MockParseService)
	parseService.On("RunJob", mock.Anything, mock.MatchedBy(func(j *domain.ParseJob) bool {
		return j.ID == job.ID
	}), 3).Run(func(mock.Arguments) { close(dispatched) }).Once()

	worker := service.NewParseQueueWorker(jobRepo, parseService, service.ParseQueueConfig{
		PollInterval: 10 * time.Millisecond,
		MaxRetries:   3,
		Concurrency:  2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	select {
	case <-dispatched:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never dispatched")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not shut down")
	}

	parseService.AssertExpectations(t)
}

func TestParseQueueWorker_StopsOnCancel(t *testing.T) {
	jobRepo := new(mocks.MockParseJobRepo)
	jobRepo.On("ClaimQueued", mock.Anything, mock.Anything).Return([]domain.ParseJob{}, nil)

	worker := service.NewParseQueueWorker(jobRepo, new(mocks.MockParseService), service.ParseQueueConfig{
		PollInterval: 5 * time.Millisecond,
		MaxRetries:   3,
		Concurrency:  1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
