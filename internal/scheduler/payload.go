package scheduler

import "encoding/json"

// TimeBanPayload is the undo payload for a timed ban.
type TimeBanPayload struct {
	GuildID     string `json:"guild_id"`
	UserID      string `json:"user_id"`
	ModeratorID string `json:"mod_id"`
}

// TimedRestrictionPayload is the undo payload for a timed role restriction.
type TimedRestrictionPayload struct {
	GuildID     string `json:"guild_id"`
	UserID      string `json:"user_id"`
	RoleID      string `json:"role_id"`
	ModeratorID string `json:"mod_id"`
}

func DecodeTimeBan(payload string) (TimeBanPayload, error) {
	var decoded TimeBanPayload
	err := json.Unmarshal([]byte(payload), &decoded)
	return decoded, err
}

func DecodeTimedRestriction(payload string) (TimedRestrictionPayload, error) {
	var decoded TimedRestrictionPayload
	err := json.Unmarshal([]byte(payload), &decoded)
	return decoded, err
}
