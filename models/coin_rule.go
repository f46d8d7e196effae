package models

// Coin event types referenced by the core flows. CoinRule rows keyed by these
// names are the single source of truth for every coin amount.
const (
	CoinEventSignup                = "INSCRIPTION"
	CoinEventContributionValidated = "CONTRIBUTION_VALIDEE"
	CoinEventUnlockIntermediate    = "DEVERROUILLAGE_PROJET_INTERMEDIAIRE"
	CoinEventUnlockAdvanced        = "DEVERROUILLAGE_PROJET_DIFFICILE"
	CoinEventUnlockExpert          = "DEVERROUILLAGE_PROJET_EXPERT"
)

// CoinRule maps a named platform event to a coin amount. Administratively
// editable; read-only from the reward flows.
type CoinRule struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	EventType   string `gorm:"uniqueIndex;not null" json:"event_type"`
	Value       int    `gorm:"not null" json:"value"`
	CreatorID   string `gorm:"type:uuid;not null" json:"creator_id"`

	Timestamps
}

// CoinRuleSeed is one default rule installed at startup if absent.
type CoinRuleSeed struct {
	EventType   string
	Description string
	Value       int
}

var DefaultCoinRules = []CoinRuleSeed{
	{CoinEventSignup, "Coins attribuées lors de l'inscription de l'utilisateur", 100},
	{CoinEventContributionValidated, "Coins attribuées pour une contribution validée", 10},
	{CoinEventUnlockIntermediate, "Coins réduit pour débloquer un projet intermédiaire", 20},
	{CoinEventUnlockAdvanced, "Coins réduit pour débloquer un projet difficile", 50},
	{CoinEventUnlockExpert, "Coins réduit pour débloquer un projet expert", 70},
}

// UnlockEventForLevel resolves the coin event keyed by a project level.
// Levels outside the unlockable set return "".
func UnlockEventForLevel(level ProjectLevel) string {
	switch level {
	case ProjectLevelIntermediate:
		return CoinEventUnlockIntermediate
	case ProjectLevelAdvanced:
		return CoinEventUnlockAdvanced
	case ProjectLevelExpert:
		return CoinEventUnlockExpert
	default:
		return ""
	}
}
