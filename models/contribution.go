package models

import "time"

type ContributionStatus string

const (
	ContributionStatusSubmitted ContributionStatus = "ENVOYE"
	ContributionStatusValidated ContributionStatus = "VALIDE"
	ContributionStatusRejected  ContributionStatus = "REJETE"
)

// Terminal reports whether the status permits no further transition.
func (s ContributionStatus) Terminal() bool {
	return s == ContributionStatusValidated || s == ContributionStatusRejected
}

// Contribution is a unit of submitted work against a feature. Status moves
// ENVOYE → VALIDE or ENVOYE → REJETE, one way; ReviewerID is the manager who
// decided it.
type Contribution struct {
	ID          string             `gorm:"primaryKey;type:uuid" json:"id"`
	LinkURL     string             `gorm:"type:text" json:"link_url,omitempty"`
	FileURL     string             `gorm:"type:text" json:"file_url,omitempty"`
	Status      ContributionStatus `gorm:"type:varchar(16);not null;default:'ENVOYE';index" json:"status"`
	SubmittedAt time.Time          `gorm:"not null" json:"submitted_at"`

	FeatureID     string  `gorm:"type:uuid;not null;index" json:"feature_id"`
	ParticipantID string  `gorm:"type:uuid;not null;index" json:"participant_id"`
	ReviewerID    *string `gorm:"type:uuid" json:"reviewer_id,omitempty"`

	Timestamps
}
