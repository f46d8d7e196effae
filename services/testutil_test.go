package services

import (
	"fmt"
	"testing"
	"time"

	"collabdev/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires every service against an in-memory database seeded with the
// default coin rules and badge catalog.
type testEnv struct {
	DB            *gorm.DB
	Ledger        *LedgerService
	Rules         *CoinRuleService
	Badges        *BadgeService
	Users         *UserService
	Projects      *ProjectService
	Participants  *ParticipantService
	Contributions *ContributionService
	Notifications *NotificationService
	Admin         *models.User
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(10000)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Feature{},
		&models.Participant{},
		&models.Contribution{},
		&models.Badge{},
		&models.BadgeGrant{},
		&models.CoinRule{},
		&models.Notification{},
	))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)

	notifications := NewNotificationService(db)
	ledger := NewLedgerService(db)
	rules := NewCoinRuleService(db)
	badges := NewBadgeService(db, ledger, notifications)

	env := &testEnv{
		DB:            db,
		Ledger:        ledger,
		Rules:         rules,
		Badges:        badges,
		Users:         NewUserService(db, rules),
		Projects:      NewProjectService(db, notifications),
		Participants:  NewParticipantService(db, ledger, rules, badges, notifications),
		Contributions: NewContributionService(db, ledger, rules, badges, notifications),
		Notifications: notifications,
	}

	seeder := NewSeeder(db, rules, badges)
	require.NoError(t, seeder.Run())
	admin, err := seeder.EnsureSystemAdmin()
	require.NoError(t, err)
	env.Admin = admin
	return env
}

func (e *testEnv) createContributor(t *testing.T, coins int) *models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Kind:      models.UserKindContributor,
		FirstName: "Awa",
		LastName:  "Traore",
		Email:     uuid.NewString() + "@example.com",
		Password:  "secret",
		Active:    true,
		TotalCoin: coins,
	}
	require.NoError(t, e.DB.Create(&user).Error)
	return &user
}

func (e *testEnv) createProject(t *testing.T, creatorID string, level *models.ProjectLevel) *models.Project {
	t.Helper()
	project := models.Project{
		ID:        uuid.NewString(),
		Title:     "Test Project " + uuid.NewString()[:8],
		Slug:      uuid.NewString(),
		Status:    models.ProjectStatusInProgress,
		Level:     level,
		CreatorID: creatorID,
	}
	require.NoError(t, e.DB.Create(&project).Error)
	return &project
}

func (e *testEnv) createParticipant(t *testing.T, projectID, contributorID string, profile models.ParticipantProfile, status models.ParticipantStatus) *models.Participant {
	t.Helper()
	participant := models.Participant{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		ContributorID: contributorID,
		Profile:       profile,
		Status:        status,
	}
	require.NoError(t, e.DB.Create(&participant).Error)
	return &participant
}

func (e *testEnv) createFeature(t *testing.T, projectID string, status models.FeatureStatus) *models.Feature {
	t.Helper()
	feature := models.Feature{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Title:     "Feature " + uuid.NewString()[:8],
		Status:    status,
	}
	require.NoError(t, e.DB.Create(&feature).Error)
	return &feature
}

func (e *testEnv) createValidatedContributions(t *testing.T, featureID, participantID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		contribution := models.Contribution{
			ID:            uuid.NewString(),
			Status:        models.ContributionStatusValidated,
			SubmittedAt:   time.Now(),
			FeatureID:     featureID,
			ParticipantID: participantID,
		}
		require.NoError(t, e.DB.Create(&contribution).Error)
	}
}

func (e *testEnv) balance(t *testing.T, contributorID string) int {
	t.Helper()
	balance, err := e.Ledger.Balance(contributorID)
	require.NoError(t, err)
	return balance
}
