package esl

import (
	"fmt"
	"strings"

	"github.com/Steap/liquipedia-scripts/internal/players"
)

type Region string

const (
	RegionAM Region = "AM"
	RegionEU Region = "EU"
	RegionKR Region = "KR"
)

func Regions() []Region {
	return []Region{RegionAM, RegionEU, RegionKR}
}

func ParseRegion(s string) (Region, error) {
	switch Region(strings.ToUpper(s)) {
	case RegionAM:
		return RegionAM, nil
	case RegionEU:
		return RegionEU, nil
	case RegionKR:
		return RegionKR, nil
	}
	return "", fmt.Errorf("unknown region %q (expected AM, EU or KR)", s)
}

// Match is one bracket match. P1/P2 are nil when the ESL API reports a
// participant id that never checked in.
type Match struct {
	P1 *players.Player
	P2 *players.Player
	S1 int
	S2 int
}

// Winner returns 1 or 2, or 0 when the match is a draw or not played yet.
func (m Match) Winner() int {
	switch {
	case m.S1 > m.S2:
		return 1
	case m.S2 > m.S1:
		return 2
	default:
		return 0
	}
}

// IsForfeit reports whether the score is the 1-0 the ESL API uses for
// walkovers. Liquipedia renders those as W/FF instead.
func (m Match) IsForfeit() bool {
	return (m.S1 == 1 && m.S2 == 0) || (m.S1 == 0 && m.S2 == 1)
}

// Results indexes matches by ESL round number, then match number.
type Results map[int]map[int]Match
