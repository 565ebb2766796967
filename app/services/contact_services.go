package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/perennia/storefront/app/events"
	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/event"
)

const contactListLimit = 100

type ContactInput struct {
	Name    string `json:"name"    validate:"required,max=255"`
	Email   string `json:"email"   validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=255"`
	Message string `json:"message" validate:"required,max=10000"`
}

type ContactService struct {
	messages *repositories.ContactRepository
}

func NewContactService(messages *repositories.ContactRepository) *ContactService {
	return &ContactService{messages: messages}
}

// Submit stores the message unread and announces it to the admin.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (models.ContactMessage, error) {
	msg := models.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   NormalizeEmail(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: in.Message,
	}
	if err := s.messages.Create(ctx, &msg); err != nil {
		return msg, fmt.Errorf("services: store contact message: %w", err)
	}

	event.Fire(ctx, events.ContactReceived, events.ContactEvent{
		MessageID: msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
	})
	return msg, nil
}

func (s *ContactService) List(ctx context.Context) ([]models.ContactMessage, error) {
	out, err := s.messages.Latest(ctx, contactListLimit)
	if err != nil {
		return nil, fmt.Errorf("services: list contact messages: %w", err)
	}
	return out, nil
}

func (s *ContactService) MarkRead(ctx context.Context, id string) error {
	if err := s.messages.MarkRead(ctx, id); err != nil {
		return notFoundAs(err, "Message not found", "mark message read")
	}
	return nil
}

// Unread counts messages the admin has not opened.
func (s *ContactService) Unread(ctx context.Context) (int64, error) {
	n, err := s.messages.UnreadCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("services: count unread messages: %w", err)
	}
	return n, nil
}
