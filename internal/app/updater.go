package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Steap/liquipedia-scripts/internal/config"
	"github.com/Steap/liquipedia-scripts/internal/esl"
	"github.com/Steap/liquipedia-scripts/internal/liquipedia"
	"github.com/Steap/liquipedia-scripts/internal/observability"
	"github.com/Steap/liquipedia-scripts/internal/players"
	"github.com/Steap/liquipedia-scripts/internal/wikitext"
)

// Section numbers of the cup pages. Section 0 is the intro, 1-2 are the
// infobox and format sections.
const (
	participantsSection = 3
	resultsSection      = 4
)

// Updater runs the fetch-transform-publish pipeline for one cup page.
type Updater struct {
	cfg    *config.Config
	logger *observability.Logger
	client *liquipedia.Client
	known  players.Registry
	dryRun bool
	out    io.Writer
}

func NewUpdater(
	cfg *config.Config,
	logger *observability.Logger,
	client *liquipedia.Client,
	known players.Registry,
	dryRun bool,
	out io.Writer,
) *Updater {
	return &Updater{
		cfg:    cfg,
		logger: logger,
		client: client,
		known:  known,
		dryRun: dryRun,
		out:    out,
	}
}

// UpdateParticipants rewrites the participant table of the cup page from
// the checked-in ESL players.
func (u *Updater) UpdateParticipants(ctx context.Context, cup *esl.Cup) error {
	page := u.pageName(cup.Region, cup.Edition)

	participants, err := cup.Participants(ctx)
	if err != nil {
		return err
	}

	current, err := u.client.SectionText(ctx, page, participantsSection)
	if err != nil {
		return err
	}

	updated := wikitext.UpdateParticipants(current, participants, u.known)
	return u.publish(ctx, page, participantsSection, current, updated, "Updating participant list")
}

// UpdateResults fills the bracket of the cup page from the ESL results.
func (u *Updater) UpdateResults(ctx context.Context, cup *esl.Cup) error {
	page := u.pageName(cup.Region, cup.Edition)

	rounds, err := cup.NRounds(ctx)
	if err != nil {
		return err
	}
	results, err := cup.Results(ctx)
	if err != nil {
		return err
	}

	current, err := u.client.SectionText(ctx, page, resultsSection)
	if err != nil {
		return err
	}

	updated, err := wikitext.UpdateResults(current, rounds, results, u.known)
	if err != nil {
		return fmt.Errorf("failed to rewrite bracket for %s: %w", page, err)
	}
	return u.publish(ctx, page, resultsSection, current, updated, "Updating results")
}

// Run executes task once, or repeatedly when watching. Interval mode
// keeps going after a failed run; only context cancellation stops it.
func (u *Updater) Run(ctx context.Context, watch bool, task func(context.Context) error) error {
	if !watch && u.cfg.Scheduler.Mode != "interval" {
		return task(ctx)
	}

	interval := u.cfg.GetSchedulerInterval()
	u.logger.Info("Watching for changes", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := task(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			u.logger.Error("Update run failed", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (u *Updater) publish(ctx context.Context, page string, section int, current, updated, summary string) error {
	if updated == current {
		u.logger.Info("Section already up to date", "page", page, "section", section)
		return nil
	}
	if u.dryRun {
		u.logger.Info("Dry run, not editing", "page", page, "section", section)
		fmt.Fprintln(u.out, updated)
		return nil
	}
	return u.client.EditSection(ctx, page, section, updated, summary)
}

func (u *Updater) pageName(region esl.Region, edition int) string {
	return os.Expand(u.cfg.Liquipedia.PageTemplate, func(key string) string {
		switch key {
		case "region":
			return string(region)
		case "edition":
			return strconv.Itoa(edition)
		}
		return ""
	})
}
