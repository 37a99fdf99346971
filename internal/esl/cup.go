package esl

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/Steap/liquipedia-scripts/internal/config"
	"github.com/Steap/liquipedia-scripts/internal/fetcher"
	"github.com/Steap/liquipedia-scripts/internal/observability"
	"github.com/Steap/liquipedia-scripts/internal/players"
)

// Cup wraps the ESL Play API for one Open Cup. Participants and results are
// fetched lazily and cached on the Cup; make a fresh Cup to refetch.
type Cup struct {
	Region  Region
	Edition int

	leagueID string
	baseURL  string
	fetcher  *fetcher.Fetcher
	logger   *observability.Logger

	participants []*players.Player
	byID         map[int64]*players.Player
	results      Results
}

func NewCup(cfg *config.Config, f *fetcher.Fetcher, logger *observability.Logger, region Region, edition int) (*Cup, error) {
	leagueID, err := cfg.ESL.LeagueID(string(region), edition)
	if err != nil {
		return nil, err
	}
	return &Cup{
		Region:   region,
		Edition:  edition,
		leagueID: leagueID,
		baseURL:  cfg.ESL.BaseURL,
		fetcher:  f,
		logger:   logger,
	}, nil
}

type contestantJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type resultJSON struct {
	Round        int `json:"round"`
	Position     int `json:"position"`
	Participants []struct {
		ID     int64 `json:"id"`
		Points []int `json:"points"`
	} `json:"participants"`
}

// Participants returns the checked-in players in API order.
func (c *Cup) Participants(ctx context.Context) ([]*players.Player, error) {
	if c.participants != nil {
		return c.participants, nil
	}

	url := fmt.Sprintf("%s/%s/contestants?states=checkedIn", c.baseURL, c.leagueID)
	resp, err := c.fetcher.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contestants: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("contestants request returned %d", resp.StatusCode)
	}

	var contestants []contestantJSON
	if err := json.Unmarshal(resp.Body, &contestants); err != nil {
		return nil, fmt.Errorf("failed to decode contestants: %w", err)
	}

	c.participants = make([]*players.Player, 0, len(contestants))
	c.byID = make(map[int64]*players.Player, len(contestants))
	for _, contestant := range contestants {
		p := &players.Player{
			ESLID: contestant.ID,
			Name:  players.NormalizeName(contestant.Name),
		}
		c.participants = append(c.participants, p)
		c.byID[p.ESLID] = p
	}

	c.logger.Info("Fetched participants",
		"region", string(c.Region),
		"edition", c.Edition,
		"league_id", c.leagueID,
		"count", len(c.participants),
	)
	return c.participants, nil
}

// NRounds is the bracket depth for the checked-in player count.
func (c *Cup) NRounds(ctx context.Context) (int, error) {
	participants, err := c.Participants(ctx)
	if err != nil {
		return 0, err
	}
	if len(participants) == 0 {
		return 0, fmt.Errorf("cup has no checked-in participants")
	}
	return int(math.Ceil(math.Log2(float64(len(participants))))), nil
}

// Results returns matches indexed by round and match number.
func (c *Cup) Results(ctx context.Context) (Results, error) {
	if c.results != nil {
		return c.results, nil
	}
	if _, err := c.Participants(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/results", c.baseURL, c.leagueID)
	resp, err := c.fetcher.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("results request returned %d", resp.StatusCode)
	}

	var rawResults []resultJSON
	if err := json.Unmarshal(resp.Body, &rawResults); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}

	c.results = make(Results)
	for _, raw := range rawResults {
		if len(raw.Participants) != 2 {
			c.logger.Warn("Skipping result without two participants",
				"round", raw.Round,
				"position", raw.Position,
			)
			continue
		}
		match := Match{
			P1: c.byID[raw.Participants[0].ID],
			P2: c.byID[raw.Participants[1].ID],
			S1: firstPoint(raw.Participants[0].Points),
			S2: firstPoint(raw.Participants[1].Points),
		}
		if c.results[raw.Round] == nil {
			c.results[raw.Round] = make(map[int]Match)
		}
		c.results[raw.Round][raw.Position] = match
	}

	c.logger.Info("Fetched results",
		"region", string(c.Region),
		"edition", c.Edition,
		"league_id", c.leagueID,
		"rounds", len(c.results),
	)
	return c.results, nil
}

// firstPoint maps the API score field to a score: unplayed matches come back
// as null, which counts as 0.
func firstPoint(points []int) int {
	if len(points) == 0 {
		return 0
	}
	return points[0]
}
