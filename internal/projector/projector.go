// Package projector turns terse player-addition lines into rows for the
// known-players CSV. Input lines look like
//
//	add Pie not pl z https://play.eslgaming.com/player/19418473
//	add Snoxtar notable https://play.eslgaming.com/player/9960122
//
// and project to "19418473,Pie,,z,pl,0" and "9960122,Snoxtar,,,,1". Sorting
// and duplicate checking are handled elsewhere (see the players command).
package projector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	verbAdd = "add"
	// markerRanked on the notable field means "not notable": the line then
	// carries flag and race tokens before the profile URL.
	markerRanked = "not"
)

// Record is one parsed player-addition line.
type Record interface {
	// Row renders the record as a registry CSV row:
	// id, name, link (always empty), race, flag, notable.
	Row() string
}

// NotableRecord is a player tracked without flag/race metadata.
type NotableRecord struct {
	ID   string
	Name string
}

func (r NotableRecord) Row() string {
	return fmt.Sprintf("%s,%s,,,,1", r.ID, r.Name)
}

// RankedRecord is a non-notable player with flag and race metadata.
type RankedRecord struct {
	ID   string
	Name string
	Flag string
	Race string
}

func (r RankedRecord) Row() string {
	// Output order is race before flag, the reverse of the input order.
	return fmt.Sprintf("%s,%s,,%s,%s,0", r.ID, r.Name, r.Race, r.Flag)
}

// MalformedRecordError reports a line whose verb matched but whose selected
// branch was missing a field. LineNo is 1-based and set by Project.
type MalformedRecordError struct {
	LineNo  int
	Line    string
	Missing string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("line %d: missing %s in %q", e.LineNo, e.Missing, e.Line)
}

// ExtractPlayerID pulls the player identifier out of an ESL profile URL,
// e.g. https://play.eslgaming.com/player/19418473 -> 19418473. The id is
// the fifth slash-delimited segment; the URL shape assumption lives here
// and nowhere else.
func ExtractPlayerID(url string) (string, error) {
	segments := strings.Split(url, "/")
	if len(segments) < 5 {
		return "", fmt.Errorf("no player id in URL %q", url)
	}
	return segments[4], nil
}

// ParseLine parses a single input line. It returns (nil, nil) for lines to
// skip: blank lines and lines whose first token is not "add". Malformed add
// lines return a *MalformedRecordError with LineNo unset.
func ParseLine(line string) (Record, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || tokens[0] != verbAdd {
		return nil, nil
	}

	malformed := func(missing string) error {
		return &MalformedRecordError{Line: line, Missing: missing}
	}

	if len(tokens) < 2 {
		return nil, malformed("name")
	}
	if len(tokens) < 3 {
		return nil, malformed("notable marker")
	}
	name := tokens[1]

	if tokens[2] == markerRanked {
		if len(tokens) < 4 {
			return nil, malformed("flag")
		}
		if len(tokens) < 5 {
			return nil, malformed("race")
		}
		if len(tokens) < 6 {
			return nil, malformed("url")
		}
		id, err := ExtractPlayerID(tokens[5])
		if err != nil {
			return nil, malformed("player id")
		}
		return RankedRecord{ID: id, Name: name, Flag: tokens[3], Race: tokens[4]}, nil
	}

	if len(tokens) < 4 {
		return nil, malformed("url")
	}
	id, err := ExtractPlayerID(tokens[3])
	if err != nil {
		return nil, malformed("player id")
	}
	return NotableRecord{ID: id, Name: name}, nil
}

// Project streams lines from r, writing one CSV row per accepted line to w
// in input order. Malformed add lines are reported through onMalformed with
// their 1-based line number and then skipped; the stream keeps going. The
// original shell version read empty strings for missing fields instead,
// silently emitting partial rows; reporting was chosen over that.
func Project(r io.Reader, w io.Writer, onMalformed func(*MalformedRecordError)) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		record, err := ParseLine(scanner.Text())
		if err != nil {
			var malformed *MalformedRecordError
			if errors.As(err, &malformed) {
				malformed.LineNo = lineNo
				if onMalformed != nil {
					onMalformed(malformed)
				}
				continue
			}
			return err
		}
		if record == nil {
			continue
		}
		if _, err := fmt.Fprintln(w, record.Row()); err != nil {
			return fmt.Errorf("write failed at line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	return nil
}
