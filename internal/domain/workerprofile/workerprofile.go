package workerprofile

import (
	"errors"
	"time"

	"github.com/geocoder89/worklink/internal/domain"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("worker profile not found")

type Profile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Skill        string    `json:"skill"`
	Experience   string    `json:"experience"`
	Pincode      string    `json:"pincode"`
	ExpectedWage string    `json:"expectedWage"`
	Description  *string   `json:"description,omitempty"`
	Mobile       *string   `json:"mobile,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Name         string            `json:"name" binding:"required,max=120"`
	Skill        string            `json:"skill" binding:"required,max=100"`
	Experience   domain.FlexString `json:"experience" binding:"required,max=100"`
	Pincode      string            `json:"pincode" binding:"required,numeric,len=6"`
	ExpectedWage domain.FlexString `json:"expectedWage" binding:"required,max=100"`
	Description  *string           `json:"description" binding:"omitempty,max=2000"`
	Mobile       *string           `json:"mobile" binding:"omitempty,numeric,min=10,max=13"`
}

type UpdateRequest struct {
	Name         *string            `json:"name" binding:"omitempty,min=1,max=120"`
	Skill        *string            `json:"skill" binding:"omitempty,min=1,max=100"`
	Experience   *domain.FlexString `json:"experience" binding:"omitempty,min=1,max=100"`
	Pincode      *string            `json:"pincode" binding:"omitempty,numeric,len=6"`
	ExpectedWage *domain.FlexString `json:"expectedWage" binding:"omitempty,min=1,max=100"`
	Description  *string            `json:"description" binding:"omitempty,max=2000"`
	Mobile       *string            `json:"mobile" binding:"omitempty,numeric,min=10,max=13"`
}

type ListFilter struct {
	UserID *string
}

func New(userID string, req CreateRequest) Profile {
	now := time.Now().UTC()

	return Profile{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         req.Name,
		Skill:        req.Skill,
		Experience:   req.Experience.String(),
		Pincode:      req.Pincode,
		ExpectedWage: req.ExpectedWage.String(),
		Description:  req.Description,
		Mobile:       req.Mobile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (p *Profile) Apply(req UpdateRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Skill != nil {
		p.Skill = *req.Skill
	}
	if req.Experience != nil {
		p.Experience = req.Experience.String()
	}
	if req.Pincode != nil {
		p.Pincode = *req.Pincode
	}
	if req.ExpectedWage != nil {
		p.ExpectedWage = req.ExpectedWage.String()
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Mobile != nil {
		p.Mobile = req.Mobile
	}
}
