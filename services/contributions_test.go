package services

import (
	"sync"
	"testing"

	"collabdev/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contributionFixture sets up a project with a manager, a developer and one
// feature in progress, the usual shape for decision tests.
type contributionFixture struct {
	Developer   *models.User
	Manager     *models.User
	Project     *models.Project
	DevPart     *models.Participant
	ManagerPart *models.Participant
	Feature     *models.Feature
}

func newContributionFixture(t *testing.T, env *testEnv, developerCoins int) *contributionFixture {
	t.Helper()
	developer := env.createContributor(t, developerCoins)
	manager := env.createContributor(t, 0)
	project := env.createProject(t, manager.ID, nil)
	devPart := env.createParticipant(t, project.ID, developer.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)
	managerPart := env.createParticipant(t, project.ID, manager.ID, models.ProfileManager, models.ParticipantStatusAccepted)
	feature := env.createFeature(t, project.ID, models.FeatureStatusInProgress)
	return &contributionFixture{
		Developer:   developer,
		Manager:     manager,
		Project:     project,
		DevPart:     devPart,
		ManagerPart: managerPart,
		Feature:     feature,
	}
}

func TestSubmitCreatesPendingContribution(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 0)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://github.com/example/pr/1", "")
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusSubmitted, contribution.Status)
	assert.Nil(t, contribution.ReviewerID)
	assert.False(t, contribution.SubmittedAt.IsZero())
}

func TestSubmitUnknownFeature(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 0)

	_, err := env.Contributions.Submit("no-such-feature", fx.DevPart.ID, "https://example.com", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitUnknownParticipant(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 0)

	_, err := env.Contributions.Submit(fx.Feature.ID, "no-such-participant", "https://example.com", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Validation pays the contribution reward and then the first badge: a fresh
// contributor at 100 coins lands at 120 after a single validated
// contribution (+10 reward, +10 DEBUTANT badge).
func TestValidateCreditsRewardAndBadge(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 100)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/work", "")
	require.NoError(t, err)

	decided, err := env.Contributions.Decide(contribution.ID, models.ContributionStatusValidated, fx.ManagerPart.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusValidated, decided.Status)
	require.NotNil(t, decided.ReviewerID)
	assert.Equal(t, fx.ManagerPart.ID, *decided.ReviewerID)

	assert.Equal(t, 120, env.balance(t, fx.Developer.ID))

	// The feature is completed by the validation.
	var feature models.Feature
	require.NoError(t, env.DB.First(&feature, "id = ?", fx.Feature.ID).Error)
	assert.Equal(t, models.FeatureStatusDone, feature.Status)

	granted, err := env.Badges.GrantsFor(fx.DevPart.ID)
	require.NoError(t, err)
	require.Len(t, granted, 1)
	assert.Equal(t, models.BadgeBeginner, granted[0].Type)

	// Validation also grants experience.
	var developer models.User
	require.NoError(t, env.DB.First(&developer, "id = ?", fx.Developer.ID).Error)
	assert.Equal(t, 10, developer.PointExp)
}

// The HTTP layer only knows the gateway-forwarded user identity, not
// participant ids: deciding through the user must resolve the manager's
// participant record on the contribution's project.
func TestDecideAsUserResolvesManagerParticipant(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 100)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/work", "")
	require.NoError(t, err)

	decided, err := env.Contributions.DecideAsUser(contribution.ID, models.ContributionStatusValidated, fx.Manager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusValidated, decided.Status)
	require.NotNil(t, decided.ReviewerID)
	assert.Equal(t, fx.ManagerPart.ID, *decided.ReviewerID)
	assert.Equal(t, 120, env.balance(t, fx.Developer.ID))
}

func TestDecideAsUserRejectsNonMembers(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 100)
	outsider := env.createContributor(t, 0)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/work", "")
	require.NoError(t, err)

	// Not on the project at all.
	_, err = env.Contributions.DecideAsUser(contribution.ID, models.ContributionStatusValidated, outsider.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// On the project, but not a manager.
	_, err = env.Contributions.DecideAsUser(contribution.ID, models.ContributionStatusValidated, fx.Developer.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := env.Contributions.Get(contribution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusSubmitted, got.Status)
}

// Two managers racing to decide the same contribution: exactly one decision
// lands and the contributor is credited exactly once.
func TestConcurrentDecideCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 100)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/work", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.Contributions.Decide(contribution.ID, models.ContributionStatusValidated, fx.ManagerPart.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes)

	// Reward and badge credited exactly once: 100 + 10 + 10.
	assert.Equal(t, 120, env.balance(t, fx.Developer.ID))

	got, err := env.Contributions.Get(contribution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusValidated, got.Status)

	granted, err := env.Badges.GrantsFor(fx.DevPart.ID)
	require.NoError(t, err)
	assert.Len(t, granted, 1)
}

func TestRejectHasNoRewardSideEffects(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 100)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/work", "")
	require.NoError(t, err)

	decided, err := env.Contributions.Decide(contribution.ID, models.ContributionStatusRejected, fx.ManagerPart.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusRejected, decided.Status)

	assert.Equal(t, 100, env.balance(t, fx.Developer.ID))

	var developer models.User
	require.NoError(t, env.DB.First(&developer, "id = ?", fx.Developer.ID).Error)
	assert.Equal(t, 0, developer.PointExp)

	var feature models.Feature
	require.NoError(t, env.DB.First(&feature, "id = ?", fx.Feature.ID).Error)
	assert.Equal(t, models.FeatureStatusInProgress, feature.Status)

	granted, err := env.Badges.GrantsFor(fx.DevPart.ID)
	require.NoError(t, err)
	assert.Empty(t, granted)

	// The contributor is still told about the outcome.
	notifications, err := env.Notifications.ListForUser(fx.Developer.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Contribution rejetée", notifications[0].Subject)
}

func TestDecideRequiresManagerProfile(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 100)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/work", "")
	require.NoError(t, err)

	// A developer cannot decide, even their own contribution.
	_, err = env.Contributions.Decide(contribution.ID, models.ContributionStatusValidated, fx.DevPart.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := env.Contributions.Get(contribution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContributionStatusSubmitted, got.Status)
	assert.Equal(t, 100, env.balance(t, fx.Developer.ID))
}

func TestDecideTerminalContributionConflicts(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 100)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/work", "")
	require.NoError(t, err)

	_, err = env.Contributions.Decide(contribution.ID, models.ContributionStatusValidated, fx.ManagerPart.ID)
	require.NoError(t, err)

	// Neither a repeat nor a flip is allowed once terminal.
	_, err = env.Contributions.Decide(contribution.ID, models.ContributionStatusValidated, fx.ManagerPart.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = env.Contributions.Decide(contribution.ID, models.ContributionStatusRejected, fx.ManagerPart.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// No double credit.
	assert.Equal(t, 120, env.balance(t, fx.Developer.ID))
}

func TestDecideRejectsNonTerminalStatus(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 0)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/work", "")
	require.NoError(t, err)

	_, err = env.Contributions.Decide(contribution.ID, models.ContributionStatusSubmitted, fx.ManagerPart.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestListByParticipantFiltersStatus(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 0)

	first, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/1", "")
	require.NoError(t, err)
	_, err = env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/2", "")
	require.NoError(t, err)

	_, err = env.Contributions.Decide(first.ID, models.ContributionStatusValidated, fx.ManagerPart.ID)
	require.NoError(t, err)

	all, err := env.Contributions.ListByParticipant(fx.DevPart.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	validated, err := env.Contributions.ListByParticipant(fx.DevPart.ID, models.ContributionStatusValidated)
	require.NoError(t, err)
	require.Len(t, validated, 1)
	assert.Equal(t, first.ID, validated[0].ID)

	_, err = env.Contributions.ListByParticipant("no-such-id", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
