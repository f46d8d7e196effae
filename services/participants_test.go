package services

import (
	"sync"
	"testing"

	"collabdev/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelPtr(l models.ProjectLevel) *models.ProjectLevel { return &l }

func TestApplyCreatesPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 0)
	project := env.createProject(t, creator.ID, nil)

	participant, err := env.Participants.Apply(project.ID, contributor.ID, models.ProfileDeveloper, 8)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantStatusPending, participant.Status)
	assert.Equal(t, 8, participant.QuizScore)
	assert.False(t, participant.Unlocked)
}

func TestApplyTwiceSameProjectConflicts(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 0)
	project := env.createProject(t, creator.ID, nil)

	_, err := env.Participants.Apply(project.ID, contributor.ID, models.ProfileDeveloper, 8)
	require.NoError(t, err)

	_, err = env.Participants.Apply(project.ID, contributor.ID, models.ProfileDesigner, 9)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAcceptThenRepeatConflicts(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 0)
	project := env.createProject(t, creator.ID, nil)
	participant := env.createParticipant(t, project.ID, contributor.ID, models.ProfileDeveloper, models.ParticipantStatusPending)

	accepted, err := env.Participants.Accept(participant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantStatusAccepted, accepted.Status)

	_, err = env.Participants.Accept(participant.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = env.Participants.Refuse(participant.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUnlockIntermediateDebitsTwenty(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 100)
	project := env.createProject(t, creator.ID, levelPtr(models.ProjectLevelIntermediate))
	participant := env.createParticipant(t, project.ID, contributor.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)

	unlocked, err := env.Participants.Unlock(participant.ID)
	require.NoError(t, err)
	assert.True(t, unlocked.Unlocked)
	assert.Equal(t, 80, env.balance(t, contributor.ID))
}

func TestUnlockExpertDebitsSeventy(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 70)
	project := env.createProject(t, creator.ID, levelPtr(models.ProjectLevelExpert))
	participant := env.createParticipant(t, project.ID, contributor.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)

	unlocked, err := env.Participants.Unlock(participant.ID)
	require.NoError(t, err)
	assert.True(t, unlocked.Unlocked)
	assert.Equal(t, 0, env.balance(t, contributor.ID))
}

func TestUnlockInsufficientBalance(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 30)
	project := env.createProject(t, creator.ID, levelPtr(models.ProjectLevelAdvanced))
	participant := env.createParticipant(t, project.ID, contributor.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)

	_, err := env.Participants.Unlock(participant.ID)
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 50, insufficient.Required)
	assert.Equal(t, 30, insufficient.Available)

	// Nothing was spent and the gate stays closed.
	assert.Equal(t, 30, env.balance(t, contributor.ID))
	got, err := env.Participants.Get(participant.ID)
	require.NoError(t, err)
	assert.False(t, got.Unlocked)
}

func TestUnlockTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 100)
	project := env.createProject(t, creator.ID, levelPtr(models.ProjectLevelIntermediate))
	participant := env.createParticipant(t, project.ID, contributor.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)

	_, err := env.Participants.Unlock(participant.ID)
	require.NoError(t, err)

	_, err = env.Participants.Unlock(participant.ID)
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)

	// A repeated unlock never debits again.
	assert.Equal(t, 80, env.balance(t, contributor.ID))
}

// Two racing unlock calls on the same participant: exactly one wins and the
// balance is debited exactly once.
func TestConcurrentUnlockDebitsOnce(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 100)
	project := env.createProject(t, creator.ID, levelPtr(models.ProjectLevelIntermediate))
	participant := env.createParticipant(t, project.ID, contributor.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.Participants.Unlock(participant.ID)
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
	assert.Equal(t, 80, env.balance(t, contributor.ID))

	got, err := env.Participants.Get(participant.ID)
	require.NoError(t, err)
	assert.True(t, got.Unlocked)
}

func TestUnlockRequiresAcceptedRequest(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 100)
	project := env.createProject(t, creator.ID, levelPtr(models.ProjectLevelIntermediate))
	participant := env.createParticipant(t, project.ID, contributor.ID, models.ProfileDeveloper, models.ParticipantStatusPending)

	_, err := env.Participants.Unlock(participant.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 100, env.balance(t, contributor.ID))
}

func TestUnlockBeginnerLevelNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 100)
	project := env.createProject(t, creator.ID, levelPtr(models.ProjectLevelBeginner))
	participant := env.createParticipant(t, project.ID, contributor.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)

	_, err := env.Participants.Unlock(participant.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 100, env.balance(t, contributor.ID))
}

func TestUnlockWithoutAssignedLevel(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	contributor := env.createContributor(t, 100)
	project := env.createProject(t, creator.ID, nil)
	participant := env.createParticipant(t, project.ID, contributor.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)

	_, err := env.Participants.Unlock(participant.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReserveFeatureClaimsAndConflicts(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	first := env.createContributor(t, 0)
	second := env.createContributor(t, 0)
	project := env.createProject(t, creator.ID, nil)
	firstPart := env.createParticipant(t, project.ID, first.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)
	secondPart := env.createParticipant(t, project.ID, second.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)
	feature := env.createFeature(t, project.ID, models.FeatureStatusTodo)

	reserved, err := env.Participants.ReserveFeature(firstPart.ID, feature.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FeatureStatusInProgress, reserved.Status)
	require.NotNil(t, reserved.ParticipantID)
	assert.Equal(t, firstPart.ID, *reserved.ParticipantID)

	_, err = env.Participants.ReserveFeature(secondPart.ID, feature.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAssignFeatureOverridesReservation(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createContributor(t, 0)
	first := env.createContributor(t, 0)
	second := env.createContributor(t, 0)
	project := env.createProject(t, creator.ID, nil)
	firstPart := env.createParticipant(t, project.ID, first.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)
	secondPart := env.createParticipant(t, project.ID, second.ID, models.ProfileDeveloper, models.ParticipantStatusAccepted)
	feature := env.createFeature(t, project.ID, models.FeatureStatusTodo)

	_, err := env.Participants.ReserveFeature(firstPart.ID, feature.ID)
	require.NoError(t, err)

	assigned, err := env.Participants.AssignFeature(secondPart.ID, feature.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.ParticipantID)
	assert.Equal(t, secondPart.ID, *assigned.ParticipantID)
}

func TestHistoryBundlesContributionsAndBadges(t *testing.T) {
	env := newTestEnv(t)
	fx := newContributionFixture(t, env, 0)

	contribution, err := env.Contributions.Submit(fx.Feature.ID, fx.DevPart.ID, "https://example.com/work", "")
	require.NoError(t, err)
	_, err = env.Contributions.Decide(contribution.ID, models.ContributionStatusValidated, fx.ManagerPart.ID)
	require.NoError(t, err)

	history, err := env.Participants.History(fx.DevPart.ID)
	require.NoError(t, err)
	assert.Len(t, history.Contributions, 1)
	require.Len(t, history.Badges, 1)
	assert.Equal(t, models.BadgeBeginner, history.Badges[0].Type)
}
