package players

// Player is a cup participant as returned by the ESL Play API.
type Player struct {
	ESLID int64
	Name  string
}

// KnownPlayer is one row of the known-players registry. Notable players get
// listed on the participants section of the Liquipedia page; non-notable
// ones only contribute race and flag data to match results.
type KnownPlayer struct {
	ESLID   int64
	LPName  string
	LPLink  string
	Race    string
	Flag    string
	Notable bool
}

// Registry indexes known players by their ESL id.
type Registry map[int64]KnownPlayer

func NewRegistry(rows []KnownPlayer) Registry {
	r := make(Registry, len(rows))
	for _, row := range rows {
		r[row.ESLID] = row
	}
	return r
}

func (r Registry) Lookup(id int64) (KnownPlayer, bool) {
	p, ok := r[id]
	return p, ok
}
