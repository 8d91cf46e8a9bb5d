package connection

import (
	"errors"
	"time"

	"github.com/geocoder89/worklink/internal/domain/chat"
	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// TypeWorkerToContractor is the only request direction the marketplace has.
const TypeWorkerToContractor = "worker_to_contractor"

var (
	ErrNotFound       = errors.New("connection request not found")
	ErrAlreadyApplied = errors.New("already applied to this work post")
	ErrInvalidStatus  = errors.New("status must be accepted or declined")
)

type JobDetails struct {
	Title    string `json:"title"`
	WorkType string `json:"workType"`
	Location string `json:"location"`
	Budget   string `json:"budget"`
}

type Request struct {
	ID            string     `json:"id"`
	SenderID      string     `json:"senderId"`
	ReceiverID    string     `json:"receiverId"`
	SenderName    string     `json:"senderName"`
	ReceiverName  string     `json:"receiverName"`
	Type          string     `json:"type"`
	Status        Status     `json:"status"`
	WorkPostID    string     `json:"workPostId"`
	WorkPostTitle string     `json:"workPostTitle"`
	JobDetails    JobDetails `json:"jobDetails"`
	ChatID        string     `json:"chatId"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type CreateRequest struct {
	WorkPostID string `json:"workPostId" binding:"required,max=64"`
}

type UpdateRequest struct {
	Status Status `json:"status" binding:"required"`
}

func (s Status) IsDecision() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Counts reports whether the request marks the sender as having applied.
func (s Status) Counts() bool {
	return s == StatusPending || s == StatusAccepted
}

// New snapshots the work post so the request survives later edits or deletion.
func New(senderID, senderName string, post workpost.WorkPost) Request {
	now := time.Now().UTC()

	r := Request{
		ID:            uuid.NewString(),
		SenderID:      senderID,
		ReceiverID:    post.ContractorID,
		SenderName:    senderName,
		ReceiverName:  post.ContractorName,
		Type:          TypeWorkerToContractor,
		Status:        StatusPending,
		WorkPostID:    post.ID,
		WorkPostTitle: post.Title,
		JobDetails: JobDetails{
			Title:    post.Title,
			WorkType: post.WorkType,
			Location: post.Pincode,
			Budget:   post.Budget,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.ChatID = r.ConversationID()
	return r
}

func (r Request) ConversationID() string {
	return chat.ID(r.SenderID, r.ReceiverID, r.WorkPostID)
}

func (r Request) Involves(userID string) bool {
	return r.SenderID == userID || r.ReceiverID == userID
}
