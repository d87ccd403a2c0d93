package moderation

import "testing"

func TestDecideEscalationSequence(t *testing.T) {
	want := []Escalation{EscalationNone, EscalationNone, EscalationKick, EscalationNone, EscalationBan, EscalationBan}
	for count := 1; count <= 6; count++ {
		got := DecideEscalation(count, 3, 5)
		if got != want[count-1] {
			t.Errorf("warn %d: expected %v, got %v", count, want[count-1], got)
		}
	}
}

func TestDecideEscalation(t *testing.T) {
	cases := []struct {
		name      string
		warnCount int
		kick      int
		ban       int
		want      Escalation
	}{
		{"no thresholds", 10, 0, 0, EscalationNone},
		{"below kick", 2, 3, 0, EscalationNone},
		{"exact kick", 3, 3, 0, EscalationKick},
		{"past kick never fires", 4, 3, 0, EscalationNone},
		{"raised threshold skipped", 5, 4, 0, EscalationNone},
		{"at ban", 5, 0, 5, EscalationBan},
		{"above ban", 9, 0, 5, EscalationBan},
		{"ban wins over kick", 5, 5, 5, EscalationBan},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecideEscalation(tc.warnCount, tc.kick, tc.ban); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
