package services

import (
	"log"

	"collabdev/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier is what the business flows depend on; failures are logged by the
// caller and never abort the triggering operation.
type Notifier interface {
	Notify(userID, subject, message string) error
}

// Mailer delivers a notification by email. The default implementation only
// logs; real delivery belongs to the surrounding system.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes would-be emails to the process log.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("mail to=%s subject=%q", to, subject)
	return nil
}

// NotificationService persists notifications to an outbox table; the email
// worker drains it asynchronously.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// Notify records a notification for a user. Delivery happens later, out of
// band.
func (s *NotificationService) Notify(userID, subject, message string) error {
	n := models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Subject: subject,
		Message: message,
	}
	return s.DB.Create(&n).Error
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}
