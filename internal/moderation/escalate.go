package moderation

// Escalation is the automatic follow-up action triggered by a warn count.
type Escalation int

const (
	EscalationNone Escalation = iota
	EscalationKick
	EscalationBan
)

func (e Escalation) String() string {
	switch e {
	case EscalationKick:
		return "kick"
	case EscalationBan:
		return "ban"
	default:
		return "none"
	}
}

// DecideEscalation maps a user's warn count and the guild's thresholds to an
// automatic follow-up action. A zero threshold means that punishment is not
// configured.
//
// Ban fires at or above its threshold and wins when both are met. Kick fires
// only on an exact match: a count that skips past the kick threshold, for
// example after the threshold was raised, never kicks.
func DecideEscalation(warnCount, kickThreshold, banThreshold int) Escalation {
	if banThreshold > 0 && warnCount >= banThreshold {
		return EscalationBan
	}
	if kickThreshold > 0 && warnCount == kickThreshold {
		return EscalationKick
	}
	return EscalationNone
}
