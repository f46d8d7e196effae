package services

import (
	"errors"
	"fmt"
	"log"

	"collabdev/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CoinRuleService manages the event→amount table the reward flows read from.
type CoinRuleService struct {
	DB *gorm.DB
}

func NewCoinRuleService(db *gorm.DB) *CoinRuleService {
	return &CoinRuleService{DB: db}
}

// ValueFor resolves the coin amount for an event type. A missing rule is a
// deployment defect, reported as misconfiguration rather than not-found.
func (s *CoinRuleService) ValueFor(eventType string) (int, error) {
	return s.ValueForTx(s.DB, eventType)
}

func (s *CoinRuleService) ValueForTx(tx *gorm.DB, eventType string) (int, error) {
	var rule models.CoinRule
	err := tx.Where("event_type = ?", eventType).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("coin rule %q: %w", eventType, ErrMisconfiguration)
	}
	if err != nil {
		return 0, err
	}
	return rule.Value, nil
}

// SeedDefaults installs the default coin rules, skipping any event type that
// already has a row. Safe to run on every boot.
func (s *CoinRuleService) SeedDefaults(creatorID string) error {
	for _, seed := range models.DefaultCoinRules {
		var count int64
		if err := s.DB.Model(&models.CoinRule{}).
			Where("event_type = ?", seed.EventType).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		rule := models.CoinRule{
			ID:          uuid.NewString(),
			Name:        seed.EventType,
			Description: seed.Description,
			EventType:   seed.EventType,
			Value:       seed.Value,
			CreatorID:   creatorID,
		}
		if err := s.DB.Create(&rule).Error; err != nil {
			return err
		}
		log.Printf("coin rule %s seeded (value: %d)", seed.EventType, seed.Value)
	}
	return nil
}

// Create adds a new rule on behalf of an administrator.
func (s *CoinRuleService) Create(adminID string, rule *models.CoinRule) (*models.CoinRule, error) {
	if err := s.requireAdmin(adminID); err != nil {
		return nil, err
	}
	rule.ID = uuid.NewString()
	rule.CreatorID = adminID
	if err := s.DB.Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// Update modifies an existing rule's name, description and value.
func (s *CoinRuleService) Update(id string, name, description string, value int) (*models.CoinRule, error) {
	var rule models.CoinRule
	if err := s.DB.First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("coin rule", id)
		}
		return nil, err
	}
	rule.Name = name
	rule.Description = description
	rule.Value = value
	if err := s.DB.Save(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *CoinRuleService) Delete(id string) error {
	res := s.DB.Delete(&models.CoinRule{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NotFoundError("coin rule", id)
	}
	return nil
}

func (s *CoinRuleService) List() ([]models.CoinRule, error) {
	var rules []models.CoinRule
	err := s.DB.Order("event_type ASC").Find(&rules).Error
	return rules, err
}

func (s *CoinRuleService) requireAdmin(adminID string) error {
	var admin models.User
	err := s.DB.Where("id = ? AND kind = ?", adminID, models.UserKindAdministrator).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError("administrator", adminID)
	}
	return err
}
