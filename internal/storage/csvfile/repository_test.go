package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Steap/liquipedia-scripts/internal/observability"
	"github.com/Steap/liquipedia-scripts/internal/players"
)

const fixture = `ESL id,LP name,LP link,race,flag,notable
7831103,herO,herO(jOin),,,1
6467940,Serral,,,,1
16616688,Syrril,,z,fr,0
16597540,PhleBuster,,z,fi,0
`

func testRepo(t *testing.T, contents string) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "players.csv")
	if contents != "" {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	repo, err := NewRepository(path, observability.NewTestLogger())
	if err != nil {
		t.Fatalf("NewRepository error: %v", err)
	}
	return repo
}

func TestLoadAll(t *testing.T) {
	repo := testRepo(t, fixture)

	rows, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}

	want := players.KnownPlayer{ESLID: 7831103, LPName: "herO", LPLink: "herO(jOin)", Notable: true}
	if rows[0] != want {
		t.Errorf("rows[0] = %+v, want %+v", rows[0], want)
	}
	if rows[2].Race != "z" || rows[2].Flag != "fr" || rows[2].Notable {
		t.Errorf("rows[2] = %+v, want Syrril z/fr non-notable", rows[2])
	}
}

func TestLoadAllMissingFile(t *testing.T) {
	repo := testRepo(t, "")
	rows, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows from missing file, want 0", len(rows))
	}
}

func TestUpsert(t *testing.T) {
	repo := testRepo(t, fixture)
	ctx := context.Background()

	// New row
	isNew, isUpdated, err := repo.Upsert(ctx, players.KnownPlayer{ESLID: 5701196, LPName: "Reynor", Notable: true})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if !isNew || isUpdated {
		t.Errorf("new row: isNew=%v isUpdated=%v, want true/false", isNew, isUpdated)
	}

	// Unchanged row
	isNew, isUpdated, err = repo.Upsert(ctx, players.KnownPlayer{ESLID: 5701196, LPName: "Reynor", Notable: true})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if isNew || isUpdated {
		t.Errorf("unchanged row: isNew=%v isUpdated=%v, want false/false", isNew, isUpdated)
	}

	// Changed row
	isNew, isUpdated, err = repo.Upsert(ctx, players.KnownPlayer{ESLID: 16616688, LPName: "Syrril", Race: "t", Flag: "de"})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if isNew || !isUpdated {
		t.Errorf("changed row: isNew=%v isUpdated=%v, want false/true", isNew, isUpdated)
	}

	rows, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(rows) != 5 {
		t.Errorf("got %d rows after upserts, want 5", len(rows))
	}
}

func TestDuplicateIDs(t *testing.T) {
	repo := testRepo(t, fixture+"6467940,SerralAgain,,,,1\n")

	dupes, err := repo.DuplicateIDs(context.Background())
	if err != nil {
		t.Fatalf("DuplicateIDs error: %v", err)
	}
	if len(dupes) != 1 || dupes[0] != 6467940 {
		t.Errorf("DuplicateIDs = %v, want [6467940]", dupes)
	}
}

func TestSortedRows(t *testing.T) {
	repo := testRepo(t, fixture)

	rows, err := repo.SortedRows(context.Background())
	if err != nil {
		t.Fatalf("SortedRows error: %v", err)
	}

	// Notable first, then by LP name.
	wantOrder := []string{"Serral", "herO", "PhleBuster", "Syrril"}
	for i, name := range wantOrder {
		if rows[i].LPName != name {
			t.Errorf("rows[%d] = %s, want %s", i, rows[i].LPName, name)
		}
	}
}
