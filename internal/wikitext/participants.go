// Package wikitext holds the pure transforms over Liquipedia page markup:
// participant table rebuilding and bracket result updates. Nothing in here
// touches the network, which keeps the formatting rules testable.
package wikitext

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Steap/liquipedia-scripts/internal/players"
)

var participantTableRe = regexp.MustCompile(`(?s)\{\{ParticipantTable.*\}\}`)

// UpdateParticipants rebuilds the {{ParticipantTable}} block from the
// checked-in players. Only notable known players are listed; unknown
// players are assumed non-notable and skipped.
func UpdateParticipants(current string, participants []*players.Player, known players.Registry) string {
	var entries []string
	i := 1
	for _, p := range participants {
		kp, ok := known.Lookup(p.ESLID)
		if !ok || !kp.Notable {
			continue
		}
		entry := fmt.Sprintf("|p%d=%s", i, kp.LPName)
		if kp.LPLink != "" {
			entry += fmt.Sprintf("|p%dlink=%s", i, kp.LPLink)
		}
		entries = append(entries, entry)
		i++
	}

	block := "{{ParticipantTable\n" + strings.Join(entries, "\n") + "\n}}"
	return participantTableRe.ReplaceAllLiteralString(current, block)
}
