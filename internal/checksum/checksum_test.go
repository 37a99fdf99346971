package checksum

import (
	"testing"

	"github.com/Steap/liquipedia-scripts/internal/players"
)

func TestRowHash(t *testing.T) {
	gen := NewGenerator()

	row := players.KnownPlayer{
		ESLID:  16616688,
		LPName: "Syrril",
		Race:   "z",
		Flag:   "fr",
	}

	hash1 := gen.RowHash(row)
	hash2 := gen.RowHash(row)

	if hash1 != hash2 {
		t.Errorf("Hash not deterministic: %s != %s", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("Hash wrong length: %d, expected 64", len(hash1))
	}

	changed := row
	changed.Flag = "de"
	if gen.RowHash(changed) == hash1 {
		t.Error("Hash should change when the flag changes")
	}

	promoted := row
	promoted.Notable = true
	if gen.RowHash(promoted) == hash1 {
		t.Error("Hash should change when notability changes")
	}
}

func TestVerifyRowHash(t *testing.T) {
	gen := NewGenerator()

	row := players.KnownPlayer{ESLID: 1, LPName: "Serral", Notable: true}
	hash := gen.RowHash(row)

	if !gen.VerifyRowHash(hash, row) {
		t.Error("VerifyRowHash failed for correct data")
	}

	row.LPName = "Reynor"
	if gen.VerifyRowHash(hash, row) {
		t.Error("VerifyRowHash should fail after a name change")
	}
}
