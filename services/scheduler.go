package services

import (
	"fmt"
	"log"
	"time"

	"collabdev/models"

	"github.com/go-co-op/gocron/v2"
)

// StartReviewReminderScheduler reminds project managers about contributions
// that have been sitting in ENVOYE for longer than stale. Runs daily.
func (s *ContributionService) StartReviewReminderScheduler(stale time.Duration) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[scheduler] init failed: %v", err)
		return
	}
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-stale)
			var pending []models.Contribution
			if err := s.DB.Where("status = ? AND submitted_at <= ?", models.ContributionStatusSubmitted, cutoff).
				Find(&pending).Error; err != nil {
				log.Printf("[scheduler] DB error: %v", err)
				return
			}
			if len(pending) == 0 {
				return
			}

			// Group pending reviews per project, then ping that project's
			// managers once each.
			perProject := make(map[string]int)
			for _, c := range pending {
				var participant models.Participant
				if err := s.DB.First(&participant, "id = ?", c.ParticipantID).Error; err != nil {
					continue
				}
				perProject[participant.ProjectID]++
			}

			for projectID, count := range perProject {
				var managers []models.Participant
				if err := s.DB.Where("project_id = ? AND profile = ? AND status = ?",
					projectID, models.ProfileManager, models.ParticipantStatusAccepted).
					Find(&managers).Error; err != nil {
					continue
				}
				for _, m := range managers {
					if err := s.Notifier.Notify(m.ContributorID,
						"Contributions en attente de revue",
						fmt.Sprintf("%d contribution(s) attendent une décision depuis plus de %s.", count, stale),
					); err != nil {
						log.Printf("[scheduler] reminder failed for %s: %v", m.ContributorID, err)
					}
				}
			}
		}),
	)
}
