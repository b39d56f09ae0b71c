package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// Number of levels shown by /levels around the current one
	LevelsPageSize int
	// Delete /register and /login messages so passwords do not stay in the chat
	HideCredentials bool
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout:   60,
		LevelsPageSize:  15,
		HideCredentials: true,
	}
}
