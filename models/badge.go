package models

import "time"

type BadgeType string

const (
	BadgeBeginner BadgeType = "DEBUTANT"
	BadgeBronze   BadgeType = "BRONZE"
	BadgeSilver   BadgeType = "ARGENT"
	BadgeGold     BadgeType = "OR"
	BadgePlatinum BadgeType = "PLATINE"
)

// Badge is a reward tier: once a participant's validated-contribution count
// reaches ContributionThreshold, the badge is granted and CoinReward is
// credited. (type, threshold) pairs are unique; iteration order for
// eligibility is always threshold ascending.
type Badge struct {
	ID                    string    `gorm:"primaryKey;type:uuid" json:"id"`
	Type                  BadgeType `gorm:"type:varchar(16);not null;uniqueIndex:idx_badge_type_threshold" json:"type"`
	Description           string    `gorm:"type:text" json:"description"`
	ContributionThreshold int       `gorm:"not null;uniqueIndex:idx_badge_type_threshold" json:"contribution_threshold"`
	CoinReward            int       `gorm:"not null" json:"coin_reward"`
	CreatorID             string    `gorm:"type:uuid;not null" json:"creator_id"`

	Timestamps
}

// BadgeGrant records that a participant earned a badge. The unique index on
// (participant, badge) is what makes badge evaluation idempotent.
type BadgeGrant struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string    `gorm:"type:uuid;not null;uniqueIndex:idx_participant_badge" json:"participant_id"`
	BadgeID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_participant_badge" json:"badge_id"`
	AcquiredAt    time.Time `gorm:"not null" json:"acquired_at"`
}

// BadgeSeed is one default badge tuple installed at startup.
type BadgeSeed struct {
	Type        BadgeType
	Description string
	Threshold   int
	CoinReward  int
}

// DefaultBadges are created on first boot if absent; a resync updates
// description and reward in place without touching type or threshold.
var DefaultBadges = []BadgeSeed{
	{BadgeBeginner, "Badge attribué pour la première contribution validée", 1, 10},
	{BadgeBronze, "Badge Bronze attribué après 5 contributions validées", 5, 25},
	{BadgeSilver, "Badge Argent attribué après 10 contributions validées", 10, 50},
	{BadgeGold, "Badge Or attribué après 20 contributions validées", 20, 100},
	{BadgePlatinum, "Badge Platine attribué après 50 contributions validées", 50, 200},
}
