package services

import (
	"errors"
	"log"

	"collabdev/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seeder installs the reward configuration on startup: the system
// administrator identity that owns seed data, the default coin rules and the
// default badge catalog. Re-running it is a no-op.
type Seeder struct {
	DB     *gorm.DB
	Rules  *CoinRuleService
	Badges *BadgeService
}

func NewSeeder(db *gorm.DB, rules *CoinRuleService, badges *BadgeService) *Seeder {
	return &Seeder{DB: db, Rules: rules, Badges: badges}
}

// Run seeds everything, in dependency order.
func (s *Seeder) Run() error {
	admin, err := s.EnsureSystemAdmin()
	if err != nil {
		return err
	}
	if err := s.Rules.SeedDefaults(admin.ID); err != nil {
		return err
	}
	return s.Badges.SeedDefaults(admin.ID)
}

// EnsureSystemAdmin returns the dedicated system administrator, creating it
// on first boot. Seed data is attributed to this identity rather than to
// whichever human administrator happens to exist.
func (s *Seeder) EnsureSystemAdmin() (*models.User, error) {
	var admin models.User
	err := s.DB.Where("email = ?", models.SystemAdminEmail).First(&admin).Error
	if err == nil {
		return &admin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	admin = models.User{
		ID:       uuid.NewString(),
		Kind:     models.UserKindAdministrator,
		Email:    models.SystemAdminEmail,
		Password: uuid.NewString(), // never used to log in
		Active:   true,
	}
	if err := s.DB.Create(&admin).Error; err != nil {
		return nil, err
	}
	log.Printf("system administrator created for seed data ownership")
	return &admin, nil
}
