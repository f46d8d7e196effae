package models

type ParticipantStatus string

const (
	ParticipantStatusPending  ParticipantStatus = "EN_ATTENTE"
	ParticipantStatusAccepted ParticipantStatus = "ACCEPTE"
	ParticipantStatusRefused  ParticipantStatus = "REFUSE"
)

type ParticipantProfile string

const (
	ProfileManager   ParticipantProfile = "GESTIONNAIRE"
	ProfileDeveloper ParticipantProfile = "DEVELOPPEUR"
	ProfileDesigner  ParticipantProfile = "DESIGNER"
)

// Participant is one contributor's membership in one project. A contributor
// may hold at most one participant row per project.
type Participant struct {
	ID            string             `gorm:"primaryKey;type:uuid" json:"id"`
	ProjectID     string             `gorm:"type:uuid;not null;uniqueIndex:idx_project_contributor" json:"project_id"`
	ContributorID string             `gorm:"type:uuid;not null;uniqueIndex:idx_project_contributor" json:"contributor_id"`
	Profile       ParticipantProfile `gorm:"type:varchar(16);not null" json:"profile"`
	Status        ParticipantStatus  `gorm:"type:varchar(16);not null;default:'EN_ATTENTE';index" json:"status"`
	QuizScore     int                `gorm:"default:0" json:"quiz_score"`

	// Unlocked flips false→true exactly once, through the unlock gate.
	Unlocked bool `gorm:"not null;default:false" json:"unlocked"`

	Timestamps
}

func (p *Participant) IsManager() bool {
	return p.Profile == ProfileManager
}
