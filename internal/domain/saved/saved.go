package saved

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("saved item not found")
	ErrAlreadySaved = errors.New("already saved")
)

type Job struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	WorkPostID string    `json:"workPostId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Worker struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	WorkerProfileID string    `json:"workerProfileId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type SaveJobRequest struct {
	WorkPostID string `json:"workPostId" binding:"required,max=64"`
}

type SaveWorkerRequest struct {
	WorkerProfileID string `json:"workerProfileId" binding:"required,max=64"`
}

func NewJob(userID, workPostID string) Job {
	now := time.Now().UTC()
	return Job{ID: uuid.NewString(), UserID: userID, WorkPostID: workPostID, CreatedAt: now, UpdatedAt: now}
}

func NewWorker(userID, workerProfileID string) Worker {
	now := time.Now().UTC()
	return Worker{ID: uuid.NewString(), UserID: userID, WorkerProfileID: workerProfileID, CreatedAt: now, UpdatedAt: now}
}
