package checksum

import (
	"crypto/sha256"
	"fmt"

	"github.com/Steap/liquipedia-scripts/internal/players"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// RowHash hashes a registry row so the sqlite driver can tell unchanged
// upserts apart from updates.
// Formula: SHA256(esl_id|lp_name|lp_link|race|flag|notable)
func (g *Generator) RowHash(p players.KnownPlayer) string {
	notable := 0
	if p.Notable {
		notable = 1
	}
	content := fmt.Sprintf("%d|%s|%s|%s|%s|%d", p.ESLID, p.LPName, p.LPLink, p.Race, p.Flag, notable)
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// VerifyRowHash checks a row against an expected hash.
func (g *Generator) VerifyRowHash(expected string, p players.KnownPlayer) bool {
	return g.RowHash(p) == expected
}
