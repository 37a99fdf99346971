package wikitext

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Steap/liquipedia-scripts/internal/esl"
	"github.com/Steap/liquipedia-scripts/internal/players"
)

var bracketSizeRe = regexp.MustCompile(`\|Bracket/(\d+)\|`)

// MatchInfo is one {{Match}} block as currently written on the page.
// All fields are kept as raw strings so that values entered by hand
// survive a rewrite untouched.
type MatchInfo struct {
	Raw     string
	RoundNo string
	MatchNo string
	BestOf  string
	P1, P2  string
	F1, F2  string
	R1, R2  string
	S1, S2  string
}

// LPRoundCount derives the number of bracket rounds from the
// {{Bracket|Bracket/N|...}} header of the results section.
func LPRoundCount(text string) (int, error) {
	m := bracketSizeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("cannot figure out what kind of bracket this is")
	}
	size, err := strconv.Atoi(m[1])
	if err != nil || size < 2 {
		return 0, fmt.Errorf("invalid bracket size %q", m[1])
	}
	return int(math.Ceil(math.Log2(float64(size)))), nil
}

// LPRoundToESLRound maps a wiki bracket round to the matching round of
// the larger ESL bracket. The wiki bracket only shows the last lpRounds
// rounds, so both counts are needed for the offset.
func LPRoundToESLRound(lpRound, eslRounds, lpRounds int) (int, error) {
	if lpRound < 1 {
		return 0, fmt.Errorf("invalid bracket round %d", lpRound)
	}
	return lpRound + eslRounds - lpRounds - 1, nil
}

// matchPattern matches one {{Match}} block with two {{1v1Opponent}}
// lines. Rounds above maxRound use a different naming scheme on the
// page and are left alone.
func matchPattern(maxRound int) (*regexp.Regexp, error) {
	if maxRound < 1 || maxRound > 9 {
		return nil, fmt.Errorf("unsupported bracket depth: %d rewritable rounds", maxRound)
	}
	pattern := fmt.Sprintf(
		`\|R(?P<roundno>[1-%d])M(?P<matchno>\d+)=(?P<bestof>\{\{Match(\|bestof=\d)?)`+"\n"+
			`    \|opponent1=\{\{1v1Opponent\|1=(?P<p1>[a-zA-Z0-9_]*)(?P<f1>(\|flag=[a-z]+)?)(?P<r1>(\|race=[tzp])?)\|score=(?P<s1>[0-2]*)\}\}`+"\n"+
			`    \|opponent2=\{\{1v1Opponent\|1=(?P<p2>[a-zA-Z0-9_]*)(?P<f2>(\|flag=[a-z]+)?)(?P<r2>(\|race=[tzp])?)\|score=(?P<s2>[0-2]*)\}\}`+"\n"+
			`\}\}`,
		maxRound)
	return regexp.Compile(pattern)
}

// Matches extracts every rewritable {{Match}} block from a results
// section with lpRounds bracket rounds.
func Matches(text string, lpRounds int) ([]MatchInfo, error) {
	re, err := matchPattern(lpRounds - 2)
	if err != nil {
		return nil, err
	}

	names := re.SubexpNames()
	var infos []MatchInfo
	for _, groups := range re.FindAllStringSubmatch(text, -1) {
		info := MatchInfo{Raw: groups[0]}
		for i, name := range names {
			switch name {
			case "roundno":
				info.RoundNo = groups[i]
			case "matchno":
				info.MatchNo = groups[i]
			case "bestof":
				info.BestOf = groups[i]
			case "p1":
				info.P1 = groups[i]
			case "p2":
				info.P2 = groups[i]
			case "f1":
				info.F1 = groups[i]
			case "f2":
				info.F2 = groups[i]
			case "r1":
				info.R1 = groups[i]
			case "r2":
				info.R2 = groups[i]
			case "s1":
				info.S1 = groups[i]
			case "s2":
				info.S2 = groups[i]
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// FormatMatch renders a {{Match}} block, filling blanks from the ESL
// result and the known-players registry. Anything already written on
// the page wins over what we would fill in.
func FormatMatch(m esl.Match, info MatchInfo, known players.Registry) string {
	s1, s2 := matchScores(m, info.S1, info.S2)
	return fmt.Sprintf(
		"|R%sM%s=%s\n"+
			"    |opponent1={{1v1Opponent|1=%s%s%s|score=%s}}\n"+
			"    |opponent2={{1v1Opponent|1=%s%s%s|score=%s}}\n"+
			"}}",
		info.RoundNo, info.MatchNo, info.BestOf,
		opponentName(info.P1, m.P1, known), opponentFlag(info.F1, m.P1, known), opponentRace(info.R1, m.P1, known), s1,
		opponentName(info.P2, m.P2, known), opponentFlag(info.F2, m.P2, known), opponentRace(info.R2, m.P2, known), s2)
}

// UpdateResults rewrites the bracket of a results section from the ESL
// results. Matches that ESL has no result for yet are left as they are.
func UpdateResults(current string, eslRounds int, results esl.Results, known players.Registry) (string, error) {
	lpRounds, err := LPRoundCount(current)
	if err != nil {
		return "", err
	}
	infos, err := Matches(current, lpRounds)
	if err != nil {
		return "", err
	}

	updated := current
	for _, info := range infos {
		lpRound, err := strconv.Atoi(info.RoundNo)
		if err != nil {
			continue
		}
		eslRound, err := LPRoundToESLRound(lpRound, eslRounds, lpRounds)
		if err != nil {
			return "", err
		}
		round, ok := results[eslRound]
		if !ok {
			continue
		}
		matchNo, err := strconv.Atoi(info.MatchNo)
		if err != nil {
			continue
		}
		m, ok := round[matchNo]
		if !ok {
			continue
		}
		updated = strings.Replace(updated, info.Raw, FormatMatch(m, info, known), 1)
	}
	return updated, nil
}

func matchScores(m esl.Match, cur1, cur2 string) (string, string) {
	if m.IsForfeit() {
		if m.Winner() == 1 {
			return "W", "FF"
		}
		return "FF", "W"
	}
	if cur1 != "" || cur2 != "" {
		return cur1, cur2
	}
	if m.S1 == 0 && m.S2 == 0 {
		return "", ""
	}
	return strconv.Itoa(m.S1), strconv.Itoa(m.S2)
}

func opponentName(cur string, p *players.Player, known players.Registry) string {
	if cur != "" {
		return cur
	}
	if p == nil {
		return ""
	}
	if kp, ok := known.Lookup(p.ESLID); ok {
		return kp.LPName
	}
	return p.Name
}

func opponentFlag(cur string, p *players.Player, known players.Registry) string {
	if cur != "" {
		return cur
	}
	if p == nil {
		return ""
	}
	if kp, ok := known.Lookup(p.ESLID); ok && kp.Flag != "" {
		return "|flag=" + kp.Flag
	}
	return ""
}

func opponentRace(cur string, p *players.Player, known players.Registry) string {
	if cur != "" {
		return cur
	}
	if p == nil {
		return ""
	}
	if kp, ok := known.Lookup(p.ESLID); ok && kp.Race != "" {
		return "|race=" + kp.Race
	}
	return ""
}
