package workpost

import (
	"errors"
	"time"

	"github.com/geocoder89/worklink/internal/domain"
	"github.com/google/uuid"
)

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

var ErrNotFound = errors.New("work post not found")

type WorkPost struct {
	ID             string    `json:"id"`
	ContractorID   string    `json:"contractorId"`
	ContractorName string    `json:"contractorName"`
	Title          string    `json:"title"`
	WorkType       string    `json:"workType"`
	Pincode        string    `json:"pincode"`
	Description    string    `json:"description"`
	Budget         string    `json:"budget"`
	StartDate      *string   `json:"startDate,omitempty"`
	EndDate        *string   `json:"endDate,omitempty"`
	Requests       []string  `json:"requests"`
	Status         Status    `json:"status"`
	Applied        *bool     `json:"applied,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Title       string            `json:"title" binding:"required,max=200"`
	WorkType    string            `json:"workType" binding:"required,max=100"`
	Pincode     string            `json:"pincode" binding:"required,numeric,len=6"`
	Description string            `json:"description" binding:"required,max=5000"`
	Budget      domain.FlexString `json:"budget" binding:"required,max=100"`
	StartDate   *string           `json:"startDate" binding:"omitempty,max=40"`
	EndDate     *string           `json:"endDate" binding:"omitempty,max=40"`
}

// UpdateRequest applies only the fields that are present.
type UpdateRequest struct {
	Title       *string            `json:"title" binding:"omitempty,min=1,max=200"`
	WorkType    *string            `json:"workType" binding:"omitempty,min=1,max=100"`
	Pincode     *string            `json:"pincode" binding:"omitempty,numeric,len=6"`
	Description *string            `json:"description" binding:"omitempty,min=1,max=5000"`
	Budget      *domain.FlexString `json:"budget" binding:"omitempty,min=1,max=100"`
	StartDate   *string            `json:"startDate" binding:"omitempty,max=40"`
	EndDate     *string            `json:"endDate" binding:"omitempty,max=40"`
	Status      *Status            `json:"status" binding:"omitempty,oneof=active closed"`
}

type ToggleRequest struct {
	WorkerID string `json:"workerId" binding:"omitempty,max=64"`
}

type ListFilter struct {
	ContractorID *string
	OnlyActive   bool
}

func (p *WorkPost) Apply(req UpdateRequest) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.WorkType != nil {
		p.WorkType = *req.WorkType
	}
	if req.Pincode != nil {
		p.Pincode = *req.Pincode
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Budget != nil {
		p.Budget = req.Budget.String()
	}
	if req.StartDate != nil {
		p.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		p.EndDate = req.EndDate
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
}

func New(contractorID, contractorName string, req CreateRequest) WorkPost {
	now := time.Now().UTC()

	return WorkPost{
		ID:             uuid.NewString(),
		ContractorID:   contractorID,
		ContractorName: contractorName,
		Title:          req.Title,
		WorkType:       req.WorkType,
		Pincode:        req.Pincode,
		Description:    req.Description,
		Budget:         req.Budget.String(),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Requests:       []string{},
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
