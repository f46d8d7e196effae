package models

type ProjectStatus string

const (
	ProjectStatusPending    ProjectStatus = "EN_ATTENTE"
	ProjectStatusOpen       ProjectStatus = "OUVERT"
	ProjectStatusInProgress ProjectStatus = "EN_COURS"
	ProjectStatusFinished   ProjectStatus = "TERMINER"
	ProjectStatusRejected   ProjectStatus = "REJETE"
)

// ProjectLevel is the complexity grade assigned once by an administrator.
// It keys the coin cost a participant pays to unlock full project access.
type ProjectLevel string

const (
	ProjectLevelBeginner     ProjectLevel = "DEBUTANT"
	ProjectLevelIntermediate ProjectLevel = "INTERMEDIAIRE"
	ProjectLevelAdvanced     ProjectLevel = "AVANCE"
	ProjectLevelExpert       ProjectLevel = "EXPERT"
)

type Project struct {
	ID          string        `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string        `gorm:"not null" json:"title"`
	Slug        string        `gorm:"uniqueIndex;not null" json:"slug"`
	Description string        `gorm:"type:text" json:"description"`
	Domain      string        `gorm:"type:varchar(64)" json:"domain"`
	SpecURL     string        `gorm:"type:text" json:"spec_url,omitempty"`
	Status      ProjectStatus `gorm:"type:varchar(16);not null;default:'EN_ATTENTE';index" json:"status"`

	// Level is nil until an administrator grades the project; assignment is
	// one-shot.
	Level *ProjectLevel `gorm:"type:varchar(16)" json:"level,omitempty"`

	CreatorID   string  `gorm:"type:uuid;not null;index" json:"creator_id"`
	ValidatorID *string `gorm:"type:uuid" json:"validator_id,omitempty"`

	Timestamps
}

type FeatureStatus string

const (
	FeatureStatusTodo       FeatureStatus = "A_FAIRE"
	FeatureStatusInProgress FeatureStatus = "EN_COURS"
	FeatureStatusDone       FeatureStatus = "TERMINE"
)

// Feature is one unit of project work; contributions target a feature and a
// validated contribution completes it.
type Feature struct {
	ID        string        `gorm:"primaryKey;type:uuid" json:"id"`
	ProjectID string        `gorm:"type:uuid;not null;index" json:"project_id"`
	Title     string        `gorm:"not null" json:"title"`
	Content   string        `gorm:"type:text" json:"content"`
	Status    FeatureStatus `gorm:"type:varchar(16);not null;default:'A_FAIRE';index" json:"status"`

	// ParticipantID is set when a participant reserves or is assigned the
	// feature.
	ParticipantID *string `gorm:"type:uuid;index" json:"participant_id,omitempty"`

	Timestamps
}
