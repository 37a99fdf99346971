package projector

import (
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
		skip bool
	}{
		{
			name: "ranked player",
			line: "add Pie not pl z https://play.eslgaming.com/player/19418473",
			want: "19418473,Pie,,z,pl,0",
		},
		{
			name: "notable player",
			line: "add Snoxtar notable https://play.eslgaming.com/player/9960122",
			want: "9960122,Snoxtar,,,,1",
		},
		{
			name: "verb mismatch",
			line: "skip Foo not pl z https://play.eslgaming.com/player/1",
			skip: true,
		},
		{
			name: "blank line",
			line: "",
			skip: true,
		},
		{
			name: "whitespace only",
			line: "   \t  ",
			skip: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseLine(tt.line)
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", tt.line, err)
			}
			if tt.skip {
				if record != nil {
					t.Fatalf("ParseLine(%q) = %v, want skip", tt.line, record)
				}
				return
			}
			if record == nil {
				t.Fatalf("ParseLine(%q) skipped, want %q", tt.line, tt.want)
			}
			if got := record.Row(); got != tt.want {
				t.Errorf("ParseLine(%q).Row() = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseLineMalformed(t *testing.T) {
	tests := []struct {
		line    string
		missing string
	}{
		{"add", "name"},
		{"add Pie", "notable marker"},
		{"add Pie not", "flag"},
		{"add Pie not pl", "race"},
		{"add Pie not pl z", "url"},
		{"add Snoxtar notable", "url"},
		{"add Snoxtar notable play.eslgaming.com", "player id"},
		{"add Pie not pl z short/url", "player id"},
	}

	for _, tt := range tests {
		record, err := ParseLine(tt.line)
		if record != nil {
			t.Errorf("ParseLine(%q) = %v, want error", tt.line, record)
			continue
		}
		malformed, ok := err.(*MalformedRecordError)
		if !ok {
			t.Errorf("ParseLine(%q) error = %v, want *MalformedRecordError", tt.line, err)
			continue
		}
		if malformed.Missing != tt.missing {
			t.Errorf("ParseLine(%q) missing = %q, want %q", tt.line, malformed.Missing, tt.missing)
		}
	}
}

func TestExtractPlayerID(t *testing.T) {
	id, err := ExtractPlayerID("https://play.eslgaming.com/player/19418473")
	if err != nil {
		t.Fatalf("ExtractPlayerID error: %v", err)
	}
	if id != "19418473" {
		t.Errorf("ExtractPlayerID = %q, want %q", id, "19418473")
	}

	// Trailing path segments do not move the id.
	id, err = ExtractPlayerID("https://play.eslgaming.com/player/19418473/profile")
	if err != nil {
		t.Fatalf("ExtractPlayerID error: %v", err)
	}
	if id != "19418473" {
		t.Errorf("ExtractPlayerID = %q, want %q", id, "19418473")
	}

	if _, err := ExtractPlayerID("https://play.eslgaming.com/"); err == nil {
		t.Error("ExtractPlayerID should fail on a URL with too few segments")
	}
}

func TestProjectOrderAndSkips(t *testing.T) {
	input := strings.Join([]string{
		"add Pie not pl z https://play.eslgaming.com/player/19418473",
		"remove Gone notable https://play.eslgaming.com/player/3",
		"",
		"add Snoxtar notable https://play.eslgaming.com/player/9960122",
	}, "\n")

	var out strings.Builder
	if err := Project(strings.NewReader(input), &out, nil); err != nil {
		t.Fatalf("Project error: %v", err)
	}

	want := "19418473,Pie,,z,pl,0\n9960122,Snoxtar,,,,1\n"
	if out.String() != want {
		t.Errorf("Project output = %q, want %q", out.String(), want)
	}
}

func TestProjectAllAddLines(t *testing.T) {
	// Output line count equals input line count when every line is an add.
	input := "add A notable https://play.eslgaming.com/player/1\n" +
		"add B notable https://play.eslgaming.com/player/2\n"

	var out strings.Builder
	if err := Project(strings.NewReader(input), &out, nil); err != nil {
		t.Fatalf("Project error: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("got %d output lines, want 2", len(lines))
	}
}

func TestProjectReportsAndContinues(t *testing.T) {
	input := strings.Join([]string{
		"add Pie not pl z https://play.eslgaming.com/player/19418473",
		"add Broken not pl",
		"add Snoxtar notable https://play.eslgaming.com/player/9960122",
	}, "\n")

	var reported []*MalformedRecordError
	var out strings.Builder
	err := Project(strings.NewReader(input), &out, func(e *MalformedRecordError) {
		reported = append(reported, e)
	})
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}

	want := "19418473,Pie,,z,pl,0\n9960122,Snoxtar,,,,1\n"
	if out.String() != want {
		t.Errorf("Project output = %q, want %q", out.String(), want)
	}
	if len(reported) != 1 {
		t.Fatalf("got %d malformed reports, want 1", len(reported))
	}
	if reported[0].LineNo != 2 {
		t.Errorf("malformed line number = %d, want 2", reported[0].LineNo)
	}
	if reported[0].Missing != "race" {
		t.Errorf("malformed missing = %q, want %q", reported[0].Missing, "race")
	}
	if !strings.Contains(reported[0].Error(), "line 2") {
		t.Errorf("error text %q should reference the line number", reported[0].Error())
	}
}
