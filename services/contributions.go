package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"collabdev/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContributionService owns the contribution lifecycle. Validation is the
// single trigger point that fans out into the coin economy and badge
// progression.
type ContributionService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Rules    *CoinRuleService
	Badges   *BadgeService
	Notifier Notifier
}

func NewContributionService(db *gorm.DB, ledger *LedgerService, rules *CoinRuleService, badges *BadgeService, notifier Notifier) *ContributionService {
	return &ContributionService{DB: db, Ledger: ledger, Rules: rules, Badges: badges, Notifier: notifier}
}

// Submit creates a contribution in ENVOYE for an existing feature and
// participant.
func (s *ContributionService) Submit(featureID, participantID, linkURL, fileURL string) (*models.Contribution, error) {
	var participant models.Participant
	if err := s.DB.First(&participant, "id = ?", participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("participant", participantID)
		}
		return nil, err
	}
	var feature models.Feature
	if err := s.DB.First(&feature, "id = ?", featureID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("feature", featureID)
		}
		return nil, err
	}

	contribution := models.Contribution{
		ID:            uuid.NewString(),
		LinkURL:       linkURL,
		FileURL:       fileURL,
		Status:        models.ContributionStatusSubmitted,
		SubmittedAt:   time.Now(),
		FeatureID:     featureID,
		ParticipantID: participantID,
	}
	if err := s.DB.Create(&contribution).Error; err != nil {
		return nil, err
	}
	return &contribution, nil
}

// Experience granted to the contributor alongside the coin reward when a
// contribution is validated.
const experiencePerValidation = 10

// DecideAsUser resolves the acting user's participant record on the
// contribution's project, then decides. This is what the HTTP layer calls:
// the gateway forwards a user identity, not a participant id.
func (s *ContributionService) DecideAsUser(contributionID string, newStatus models.ContributionStatus, userID string) (*models.Contribution, error) {
	var contribution models.Contribution
	if err := s.DB.First(&contribution, "id = ?", contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("contribution", contributionID)
		}
		return nil, err
	}
	var feature models.Feature
	if err := s.DB.First(&feature, "id = ?", contribution.FeatureID).Error; err != nil {
		return nil, err
	}

	var reviewer models.Participant
	err := s.DB.Where("project_id = ? AND contributor_id = ?", feature.ProjectID, userID).
		First(&reviewer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s is not a participant of project %s: %w", userID, feature.ProjectID, ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return s.Decide(contributionID, newStatus, reviewer.ID)
}

// Decide moves a contribution from ENVOYE to VALIDE or REJETE. Only a
// participant with the manager profile may decide, and a terminal
// contribution cannot be decided again. On VALIDE the contributor is
// credited, the feature completed and badge tiers re-evaluated, all in one
// transaction; the outcome notification is sent after commit and never rolls
// anything back.
func (s *ContributionService) Decide(contributionID string, newStatus models.ContributionStatus, reviewerID string) (*models.Contribution, error) {
	if !newStatus.Terminal() {
		return nil, InvalidStateError(fmt.Sprintf("decision status must be %s or %s",
			models.ContributionStatusValidated, models.ContributionStatusRejected))
	}

	var contribution models.Contribution
	var feature models.Feature
	var notices []grantNotice

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&contribution, "id = ?", contributionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundError("contribution", contributionID)
			}
			return err
		}

		var reviewer models.Participant
		if err := tx.First(&reviewer, "id = ?", reviewerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundError("participant", reviewerID)
			}
			return err
		}
		if !reviewer.IsManager() {
			return fmt.Errorf("participant %s is not a manager: %w", reviewerID, ErrUnauthorized)
		}

		// One-way transition: the status guard makes a concurrent or repeated
		// decision a clean conflict instead of a double credit.
		res := tx.Model(&models.Contribution{}).
			Where("id = ? AND status = ?", contributionID, models.ContributionStatusSubmitted).
			Updates(map[string]interface{}{"status": newStatus, "reviewer_id": reviewerID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return InvalidStateError(fmt.Sprintf("contribution %s is already %s", contributionID, contribution.Status))
		}
		contribution.Status = newStatus
		contribution.ReviewerID = &reviewerID

		if err := tx.First(&feature, "id = ?", contribution.FeatureID).Error; err != nil {
			return err
		}

		if newStatus == models.ContributionStatusValidated {
			var participant models.Participant
			if err := tx.First(&participant, "id = ?", contribution.ParticipantID).Error; err != nil {
				return err
			}

			reward, err := s.Rules.ValueForTx(tx, models.CoinEventContributionValidated)
			if err != nil {
				return err
			}
			if err := s.Ledger.CreditTx(tx, participant.ContributorID, reward); err != nil {
				return err
			}
			if err := s.Ledger.AddExperience(tx, participant.ContributorID, experiencePerValidation); err != nil {
				return err
			}

			if err := tx.Model(&models.Feature{}).
				Where("id = ?", feature.ID).
				Update("status", models.FeatureStatusDone).Error; err != nil {
				return err
			}

			notices, err = s.Badges.evaluateAndGrantTx(tx, contribution.ParticipantID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecision(&contribution, feature.Title)
	s.Badges.sendGrantNotices(notices)
	return &contribution, nil
}

func (s *ContributionService) notifyDecision(contribution *models.Contribution, featureTitle string) {
	var participant models.Participant
	if err := s.DB.First(&participant, "id = ?", contribution.ParticipantID).Error; err != nil {
		log.Printf("decision notification skipped, participant lookup failed: %v", err)
		return
	}

	subject := "Contribution validée"
	message := fmt.Sprintf("Votre contribution pour la fonctionnalité '%s' a été validée.", featureTitle)
	if contribution.Status == models.ContributionStatusRejected {
		subject = "Contribution rejetée"
		message = fmt.Sprintf("Votre contribution pour la fonctionnalité '%s' a été rejetée.", featureTitle)
	}
	if err := s.Notifier.Notify(participant.ContributorID, subject, message); err != nil {
		log.Printf("decision notification failed for %s: %v", participant.ContributorID, err)
	}
}

// Get returns a single contribution.
func (s *ContributionService) Get(id string) (*models.Contribution, error) {
	var contribution models.Contribution
	if err := s.DB.First(&contribution, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("contribution", id)
		}
		return nil, err
	}
	return &contribution, nil
}

// List returns contributions, optionally filtered by status.
func (s *ContributionService) List(status models.ContributionStatus) ([]models.Contribution, error) {
	query := s.DB.Order("submitted_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var contributions []models.Contribution
	err := query.Find(&contributions).Error
	return contributions, err
}

// ListByParticipant returns a participant's contributions, optionally
// filtered by status.
func (s *ContributionService) ListByParticipant(participantID string, status models.ContributionStatus) ([]models.Contribution, error) {
	var count int64
	if err := s.DB.Model(&models.Participant{}).Where("id = ?", participantID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, NotFoundError("participant", participantID)
	}

	query := s.DB.Where("participant_id = ?", participantID).Order("submitted_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var contributions []models.Contribution
	err := query.Find(&contributions).Error
	return contributions, err
}

// ListByFeature returns every contribution submitted against a feature.
func (s *ContributionService) ListByFeature(featureID string) ([]models.Contribution, error) {
	var count int64
	if err := s.DB.Model(&models.Feature{}).Where("id = ?", featureID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, NotFoundError("feature", featureID)
	}

	var contributions []models.Contribution
	err := s.DB.Where("feature_id = ?", featureID).
		Order("submitted_at DESC").
		Find(&contributions).Error
	return contributions, err
}
