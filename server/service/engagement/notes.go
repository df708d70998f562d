package engagement

import (
	"fmt"

	"github.com/hrygo/honeypot/plugin/ai/intel"
)

// SafeNotes accompanies a message that was not flagged.
const SafeNotes = "Msg appears safe. No agent activation."

// secondsPerTurn is the nominal duration credited to one exchanged message.
const secondsPerTurn = 30

func deriveMetrics(turns int) *Metrics {
	return &Metrics{
		TotalMessagesExchanged:    turns,
		EngagementDurationSeconds: turns * secondsPerTurn,
	}
}

// buildNotes renders the analyst summary for a session.
func buildNotes(ledger *intel.Ledger, turns int) string {
	value, detail := "Medium", "Behavioral patterns captured"
	if ledger.HasCriticalIntel() {
		value, detail = "High", "Payment infrastructure exposed"
	}

	return fmt.Sprintf(
		"Threat Actor Profile: Employed %d urgency/authority keywords. "+
			"Attack Vector: Impersonation of financial institution with credential phishing attempt. "+
			"Intelligence Value: %s - %s. "+
			"Engagement Success: Sustained %d message exchanges, delaying real victim targeting.",
		len(ledger.SuspiciousKeywords), value, detail, turns,
	)
}
