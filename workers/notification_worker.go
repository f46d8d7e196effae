package workers

import (
	"context"
	"log"
	"time"

	"collabdev/models"
	"collabdev/services"

	"gorm.io/gorm"
)

// NotificationDispatcher drains the notification outbox and hands each entry
// to the mailer. Delivery is best-effort: a failed send stays unsent and is
// retried on the next pass; the business flow that created the row is never
// affected.
type NotificationDispatcher struct {
	DB     *gorm.DB
	Mailer services.Mailer
	Batch  int
}

func NewNotificationDispatcher(db *gorm.DB, mailer services.Mailer) *NotificationDispatcher {
	return &NotificationDispatcher{DB: db, Mailer: mailer, Batch: 50}
}

// Run polls the outbox until the context is cancelled.
func (d *NotificationDispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("notification dispatcher running (every %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("notification dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.DispatchPending(); err != nil {
				log.Printf("notification dispatch pass failed: %v", err)
			}
		}
	}
}

// DispatchPending sends one batch of unsent notifications, oldest first.
func (d *NotificationDispatcher) DispatchPending() error {
	var pending []models.Notification
	if err := d.DB.Where("sent = ?", false).
		Order("created_at ASC").
		Limit(d.Batch).
		Find(&pending).Error; err != nil {
		return err
	}

	for _, n := range pending {
		var user models.User
		if err := d.DB.First(&user, "id = ?", n.UserID).Error; err != nil {
			log.Printf("notification %s skipped, recipient lookup failed: %v", n.ID, err)
			continue
		}
		if err := d.Mailer.Send(user.Email, n.Subject, n.Message); err != nil {
			log.Printf("notification %s delivery failed: %v", n.ID, err)
			continue
		}
		now := time.Now()
		if err := d.DB.Model(&models.Notification{}).
			Where("id = ?", n.ID).
			Updates(map[string]interface{}{"sent": true, "sent_at": &now}).Error; err != nil {
			log.Printf("notification %s state update failed: %v", n.ID, err)
		}
	}
	return nil
}
