package moderation

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

const timestampLayout = "2006-01-02 15:04:05 UTC"

func describeDuration(now, expiresAt time.Time) string {
	return fmt.Sprintf("%s (%s)", humanize.RelTime(now, expiresAt, "from now", "ago"), expiresAt.UTC().Format(timestampLayout))
}

// reasonLine renders the reason suffix for an audit-channel message, or a
// reminder for the moderator when no reason was given.
func reasonLine(reason string) string {
	if reason != "" {
		return fmt.Sprintf("\n✏ __Reason__: %q", reason)
	}
	return "\nPlease add an explanation below. In the future, it is recommended to supply a reason, as it is automatically sent to the user."
}

func punishmentLogMessage(req ActionRequest, durationText string) string {
	var header string
	switch req.Action {
	case ActionKick:
		header = fmt.Sprintf("👢 **Kick**: <@%s> kicked <@%s>", req.IssuerID, req.TargetID)
	case ActionBan:
		if durationText != "" {
			header = fmt.Sprintf("⛔ **Timed Ban**: <@%s> banned <@%s> for %s", req.IssuerID, req.TargetID, durationText)
		} else {
			header = fmt.Sprintf("⛔ **Ban**: <@%s> banned <@%s>", req.IssuerID, req.TargetID)
		}
	case ActionMute:
		if durationText != "" {
			header = fmt.Sprintf("🔇 **Timed Mute**: <@%s> muted <@%s> for %s", req.IssuerID, req.TargetID, durationText)
		} else {
			header = fmt.Sprintf("🔇 **Muted**: <@%s> muted <@%s>", req.IssuerID, req.TargetID)
		}
	}
	message := fmt.Sprintf("%s | %s\n🏷 __User ID__: %s", header, req.TargetName, req.TargetID)
	return message + reasonLine(req.Reason)
}

func warnLogMessage(req ActionRequest, count int) string {
	message := fmt.Sprintf("⚠ **Warned**: <@%s> warned <@%s> (warn #%d) | %s\n🏷 __User ID__: %s",
		req.IssuerID, req.TargetID, count, req.TargetName, req.TargetID)
	return message + reasonLine(req.Reason)
}
