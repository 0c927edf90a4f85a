package models

// GuildConfig is per-server routing and schedule configuration.
// Persisted so channel routing survives restarts.
type GuildConfig struct {
	GuildID        string `json:"guild_id"`
	ChannelID      string `json:"channel_id,omitempty"`
	AlertChannelID string `json:"alert_channel_id,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}
