package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"collabdev/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeService maintains the badge catalog and runs the assignment engine:
// counting a participant's validated contributions and granting every badge
// tier whose threshold is reached, exactly once each.
type BadgeService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Notifier Notifier
}

func NewBadgeService(db *gorm.DB, ledger *LedgerService, notifier Notifier) *BadgeService {
	return &BadgeService{DB: db, Ledger: ledger, Notifier: notifier}
}

// ListOrderedByThreshold returns the whole catalog ascending by threshold,
// id as a stable tiebreak. This ordering is authoritative for eligibility.
func (s *BadgeService) ListOrderedByThreshold() ([]models.Badge, error) {
	var badges []models.Badge
	err := s.DB.Order("contribution_threshold ASC, id ASC").Find(&badges).Error
	return badges, err
}

// EligibleBadges returns every badge whose threshold is within reach of
// validatedCount.
func (s *BadgeService) EligibleBadges(validatedCount int) ([]models.Badge, error) {
	var badges []models.Badge
	err := s.DB.Where("contribution_threshold <= ?", validatedCount).
		Order("contribution_threshold ASC, id ASC").
		Find(&badges).Error
	return badges, err
}

// grantNotice carries the data needed to notify a contributor about a badge
// they just earned, after the surrounding transaction commits.
type grantNotice struct {
	ContributorID string
	Badge         models.Badge
}

// EvaluateAndGrant re-evaluates the catalog against the participant's
// validated-contribution count and grants any newly earned badges, each
// credited once. Calling it again with no new validated contributions grants
// nothing.
func (s *BadgeService) EvaluateAndGrant(participantID string) error {
	var notices []grantNotice
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		notices, err = s.evaluateAndGrantTx(tx, participantID)
		return err
	})
	if err != nil {
		return err
	}
	s.sendGrantNotices(notices)
	return nil
}

// evaluateAndGrantTx runs the evaluation inside an enclosing transaction and
// returns the notices to deliver after commit.
func (s *BadgeService) evaluateAndGrantTx(tx *gorm.DB, participantID string) ([]grantNotice, error) {
	var participant models.Participant
	if err := tx.First(&participant, "id = ?", participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("participant", participantID)
		}
		return nil, err
	}

	var validated int64
	if err := tx.Model(&models.Contribution{}).
		Where("participant_id = ? AND status = ?", participantID, models.ContributionStatusValidated).
		Count(&validated).Error; err != nil {
		return nil, err
	}

	var badges []models.Badge
	if err := tx.Where("contribution_threshold <= ?", validated).
		Order("contribution_threshold ASC, id ASC").
		Find(&badges).Error; err != nil {
		return nil, err
	}

	var notices []grantNotice
	for _, badge := range badges {
		grant := models.BadgeGrant{
			ID:            uuid.NewString(),
			ParticipantID: participantID,
			BadgeID:       badge.ID,
			AcquiredAt:    time.Now(),
		}
		// The unique (participant, badge) index makes re-evaluation a no-op.
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			continue // already granted
		}
		if err := s.Ledger.CreditTx(tx, participant.ContributorID, badge.CoinReward); err != nil {
			return nil, err
		}
		notices = append(notices, grantNotice{ContributorID: participant.ContributorID, Badge: badge})
		log.Printf("badge %s granted to participant %s (threshold %d)", badge.Type, participantID, badge.ContributionThreshold)
	}
	return notices, nil
}

func (s *BadgeService) sendGrantNotices(notices []grantNotice) {
	for _, n := range notices {
		subject := "Nouveau badge obtenu !"
		message := fmt.Sprintf(
			"Félicitations ! Vous avez obtenu le badge %s pour avoir atteint %d contributions validées. Vous recevez %d coins en récompense !",
			n.Badge.Type, n.Badge.ContributionThreshold, n.Badge.CoinReward,
		)
		if err := s.Notifier.Notify(n.ContributorID, subject, message); err != nil {
			log.Printf("badge grant notification failed for %s: %v", n.ContributorID, err)
		}
	}
}

// Progression reports, for each badge tier in threshold order, whether the
// participant has reached it.
type BadgeProgress struct {
	Type        models.BadgeType `json:"type"`
	Threshold   int              `json:"contribution_threshold"`
	CoinReward  int              `json:"coin_reward"`
	Description string           `json:"description"`
	Achieved    bool             `json:"achieved"`
}

func (s *BadgeService) Progression(participantID string) ([]BadgeProgress, error) {
	var participant models.Participant
	if err := s.DB.First(&participant, "id = ?", participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("participant", participantID)
		}
		return nil, err
	}

	var validated int64
	if err := s.DB.Model(&models.Contribution{}).
		Where("participant_id = ? AND status = ?", participantID, models.ContributionStatusValidated).
		Count(&validated).Error; err != nil {
		return nil, err
	}

	badges, err := s.ListOrderedByThreshold()
	if err != nil {
		return nil, err
	}

	progression := make([]BadgeProgress, 0, len(badges))
	for _, b := range badges {
		progression = append(progression, BadgeProgress{
			Type:        b.Type,
			Threshold:   b.ContributionThreshold,
			CoinReward:  b.CoinReward,
			Description: b.Description,
			Achieved:    int64(b.ContributionThreshold) <= validated,
		})
	}
	return progression, nil
}

// GrantsFor lists the badges a participant holds, acquisition dates included.
type GrantedBadge struct {
	models.Badge
	AcquiredAt time.Time `json:"acquired_at"`
}

func (s *BadgeService) GrantsFor(participantID string) ([]GrantedBadge, error) {
	var grants []models.BadgeGrant
	if err := s.DB.Where("participant_id = ?", participantID).Find(&grants).Error; err != nil {
		return nil, err
	}
	granted := make([]GrantedBadge, 0, len(grants))
	for _, g := range grants {
		var badge models.Badge
		if err := s.DB.First(&badge, "id = ?", g.BadgeID).Error; err != nil {
			return nil, err
		}
		granted = append(granted, GrantedBadge{Badge: badge, AcquiredAt: g.AcquiredAt})
	}
	return granted, nil
}

// Create adds a badge tier on behalf of an administrator. (type, threshold)
// must be unique.
func (s *BadgeService) Create(adminID string, badge *models.Badge) (*models.Badge, error) {
	var admin models.User
	err := s.DB.Where("id = ? AND kind = ?", adminID, models.UserKindAdministrator).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("administrator", adminID)
	}
	if err != nil {
		return nil, err
	}
	badge.ID = uuid.NewString()
	badge.CreatorID = adminID
	if err := s.DB.Create(badge).Error; err != nil {
		return nil, err
	}
	return badge, nil
}

// SeedDefaults creates one badge per default (type, threshold) tuple only if
// absent. Safe to run on every boot.
func (s *BadgeService) SeedDefaults(creatorID string) error {
	return s.applyDefaults(creatorID, false)
}

// ResyncDefaults updates description and reward of existing default badges in
// place, creating any missing tuple; threshold and type never change.
func (s *BadgeService) ResyncDefaults(creatorID string) error {
	return s.applyDefaults(creatorID, true)
}

func (s *BadgeService) applyDefaults(creatorID string, update bool) error {
	for _, seed := range models.DefaultBadges {
		var existing models.Badge
		err := s.DB.Where("type = ? AND contribution_threshold = ?", seed.Type, seed.Threshold).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			badge := models.Badge{
				ID:                    uuid.NewString(),
				Type:                  seed.Type,
				Description:           seed.Description,
				ContributionThreshold: seed.Threshold,
				CoinReward:            seed.CoinReward,
				CreatorID:             creatorID,
			}
			if err := s.DB.Create(&badge).Error; err != nil {
				return err
			}
			log.Printf("badge %s seeded (threshold: %d)", seed.Type, seed.Threshold)
		case err != nil:
			return err
		case update:
			existing.Description = seed.Description
			existing.CoinReward = seed.CoinReward
			if err := s.DB.Save(&existing).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
