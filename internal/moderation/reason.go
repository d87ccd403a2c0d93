package moderation

import (
	"errors"
	"fmt"
)

// Platform audit-log reasons are capped at 512 characters.
const maxAuditReason = 512

var ErrReasonTooLong = errors.New("reason is too long")

// AuditReason composes the reason string attached to platform mutations, so
// the platform's own audit log records who acted through the bot.
func AuditReason(issuerName, issuerID, reason string) (string, error) {
	var composed string
	if reason != "" {
		composed = fmt.Sprintf("%s (ID: %s): %s", issuerName, issuerID, reason)
	} else {
		composed = fmt.Sprintf("Action done by %s (ID: %s)", issuerName, issuerID)
	}
	if len(composed) > maxAuditReason {
		return "", ErrReasonTooLong
	}
	return composed, nil
}
