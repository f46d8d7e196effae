package services

import (
	"errors"
	"fmt"
	"log"

	"collabdev/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParticipantService manages project memberships: join requests, the
// accept/refuse decision, feature reservation and the coin-gated unlock.
type ParticipantService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Rules    *CoinRuleService
	Badges   *BadgeService
	Notifier Notifier
}

func NewParticipantService(db *gorm.DB, ledger *LedgerService, rules *CoinRuleService, badges *BadgeService, notifier Notifier) *ParticipantService {
	return &ParticipantService{DB: db, Ledger: ledger, Rules: rules, Badges: badges, Notifier: notifier}
}

// Apply files a join request for a project. One request per contributor per
// project.
func (s *ParticipantService) Apply(projectID, contributorID string, profile models.ParticipantProfile, quizScore int) (*models.Participant, error) {
	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("project", projectID)
		}
		return nil, err
	}
	var contributor models.User
	err := s.DB.Where("id = ? AND kind = ?", contributorID, models.UserKindContributor).First(&contributor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("contributor", contributorID)
	}
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.Model(&models.Participant{}).
		Where("project_id = ? AND contributor_id = ?", projectID, contributorID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, InvalidStateError("contributor already requested to join this project")
	}

	participant := models.Participant{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		ContributorID: contributorID,
		Profile:       profile,
		Status:        models.ParticipantStatusPending,
		QuizScore:     quizScore,
		Unlocked:      false,
	}
	if err := s.DB.Create(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

// Accept approves a pending join request and notifies the contributor.
func (s *ParticipantService) Accept(participantID string) (*models.Participant, error) {
	return s.decideRequest(participantID, models.ParticipantStatusAccepted,
		"Demande de participation acceptée",
		"Votre demande de participation au projet '%s' a été acceptée.")
}

// Refuse declines a pending join request and notifies the contributor.
func (s *ParticipantService) Refuse(participantID string) (*models.Participant, error) {
	return s.decideRequest(participantID, models.ParticipantStatusRefused,
		"Demande de participation refusée",
		"Votre demande de participation au projet '%s' a été refusée.")
}

func (s *ParticipantService) decideRequest(participantID string, status models.ParticipantStatus, subject, messageFmt string) (*models.Participant, error) {
	var participant models.Participant
	if err := s.DB.First(&participant, "id = ?", participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("participant", participantID)
		}
		return nil, err
	}

	// Pending is the only state a decision can leave; the guard also keeps a
	// repeated accept/refuse from flapping the status.
	res := s.DB.Model(&models.Participant{}).
		Where("id = ? AND status = ?", participantID, models.ParticipantStatusPending).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, InvalidStateError(fmt.Sprintf("participation request is already %s", participant.Status))
	}
	participant.Status = status

	var project models.Project
	if err := s.DB.First(&project, "id = ?", participant.ProjectID).Error; err == nil {
		if err := s.Notifier.Notify(participant.ContributorID, subject, fmt.Sprintf(messageFmt, project.Title)); err != nil {
			log.Printf("participation notification failed for %s: %v", participant.ContributorID, err)
		}
	}
	return &participant, nil
}

// Unlock spends coins to open full project access for an accepted
// participant. The cost is keyed by the project's level; the debit and the
// unlocked flag flip happen in one transaction with guarded updates, so a
// concurrent attempt cannot debit twice.
func (s *ParticipantService) Unlock(participantID string) (*models.Participant, error) {
	var participant models.Participant
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&participant, "id = ?", participantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundError("participant", participantID)
			}
			return err
		}
		if participant.Status != models.ParticipantStatusAccepted {
			return InvalidStateError("participation request has not been accepted")
		}
		if participant.Unlocked {
			return ErrAlreadyUnlocked
		}

		var project models.Project
		if err := tx.First(&project, "id = ?", participant.ProjectID).Error; err != nil {
			return err
		}
		if project.Level == nil {
			return fmt.Errorf("project %s has no level assigned: %w", project.ID, ErrInvalidState)
		}
		event := models.UnlockEventForLevel(*project.Level)
		if event == "" {
			return fmt.Errorf("project level %s cannot be unlocked: %w", *project.Level, ErrInvalidState)
		}

		cost, err := s.Rules.ValueForTx(tx, event)
		if err != nil {
			return err
		}
		if err := s.Ledger.DebitTx(tx, participant.ContributorID, cost); err != nil {
			return err
		}

		// unlocked=false in the guard closes the race between two concurrent
		// unlock calls reading the same snapshot above.
		res := tx.Model(&models.Participant{}).
			Where("id = ? AND unlocked = ?", participantID, false).
			Update("unlocked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyUnlocked
		}
		participant.Unlocked = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// ReserveFeature lets a participant claim an unassigned feature.
func (s *ParticipantService) ReserveFeature(participantID, featureID string) (*models.Feature, error) {
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

	res := s.DB.Model(&models.Feature{}).
		Where("id = ? AND status = ?", featureID, models.FeatureStatusTodo).
		Updates(map[string]interface{}{"participant_id": participantID, "status": models.FeatureStatusInProgress})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, InvalidStateError("feature is already reserved or finished")
	}
	feature.ParticipantID = &participant.ID
	feature.Status = models.FeatureStatusInProgress
	return &feature, nil
}

// AssignFeature hands a feature to a participant regardless of current
// reservation; used by managers to (re)distribute work.
func (s *ParticipantService) AssignFeature(participantID, featureID string) (*models.Feature, error) {
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

	feature.ParticipantID = &participant.ID
	feature.Status = models.FeatureStatusInProgress
	if err := s.DB.Save(&feature).Error; err != nil {
		return nil, err
	}
	return &feature, nil
}

// AcquisitionHistory bundles what a participant has earned so far: validated
// contributions and granted badges.
type AcquisitionHistory struct {
	ParticipantID string                `json:"participant_id"`
	Contributions []models.Contribution `json:"validated_contributions"`
	Badges        []GrantedBadge        `json:"badges"`
}

func (s *ParticipantService) History(participantID string) (*AcquisitionHistory, error) {
	var count int64
	if err := s.DB.Model(&models.Participant{}).Where("id = ?", participantID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, NotFoundError("participant", participantID)
	}

	var contributions []models.Contribution
	if err := s.DB.Where("participant_id = ? AND status = ?", participantID, models.ContributionStatusValidated).
		Order("submitted_at DESC").
		Find(&contributions).Error; err != nil {
		return nil, err
	}
	badges, err := s.Badges.GrantsFor(participantID)
	if err != nil {
		return nil, err
	}
	return &AcquisitionHistory{
		ParticipantID: participantID,
		Contributions: contributions,
		Badges:        badges,
	}, nil
}

// ListByProject returns every participant of a project.
func (s *ParticipantService) ListByProject(projectID string) ([]models.Participant, error) {
	var count int64
	if err := s.DB.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, NotFoundError("project", projectID)
	}

	var participants []models.Participant
	err := s.DB.Where("project_id = ?", projectID).Find(&participants).Error
	return participants, err
}

// Get returns a single participant.
func (s *ParticipantService) Get(id string) (*models.Participant, error) {
	var participant models.Participant
	if err := s.DB.First(&participant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("participant", id)
		}
		return nil, err
	}
	return &participant, nil
}
