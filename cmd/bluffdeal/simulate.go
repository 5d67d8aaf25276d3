package main

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/bluffdeal/internal/game"
	"github.com/lox/bluffdeal/internal/session"
)

// SimulateCmd auto-plays the configured schedule end to end: Player 1
// signals truthfully whenever a category exists and picks a random level on
// forced bluffs; Player 2 calls at random. Useful for exercising the full
// event pipeline and sanity-checking schedules.
type SimulateCmd struct {
	Config   string `help:"Path to session config (HCL)" default:"bluffdeal.hcl"`
	Sessions int    `help:"Number of sessions to play concurrently" default:"1"`
	Seed     int64  `help:"Random seed (0 = time-based)"`
	Debug    bool   `help:"Enable debug logging"`
}

type simResult struct {
	wins  map[game.Identity]int
	draws int
}

func (c *SimulateCmd) Run() error {
	logger := newLogger(c.Debug)

	cfg, err := session.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if c.Sessions < 1 {
		c.Sessions = 1
	}

	results := make([]simResult, c.Sessions)
	var g errgroup.Group
	for i := 0; i < c.Sessions; i++ {
		g.Go(func() error {
			sessCfg := *cfg
			if c.Sessions > 1 {
				// Each concurrent session gets its own files; the engine
				// contract forbids sharing one sink between engines.
				sessCfg.Session.ID = fmt.Sprintf("%s_%d", cfg.Session.ID, i+1)
				sessCfg.Session.Number = 0
				sessCfg.Logging.Database = suffixPath(cfg.Logging.Database, i+1)
				if cfg.Logging.CSVMirror != "" {
					sessCfg.Logging.CSVMirror = suffixPath(cfg.Logging.CSVMirror, i+1)
				}
			}
			res, err := playSession(&sessCfg, logger, rand.New(rand.NewSource(seed+int64(i))))
			if err != nil {
				return fmt.Errorf("session %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	total := simResult{wins: map[game.Identity]int{}}
	for _, r := range results {
		total.wins[game.VP1] += r.wins[game.VP1]
		total.wins[game.VP2] += r.wins[game.VP2]
		total.draws += r.draws
	}
	logger.Info("simulation complete",
		"sessions", c.Sessions,
		"seed", seed,
		"vp1_wins", total.wins[game.VP1],
		"vp2_wins", total.wins[game.VP2],
		"draws", total.draws)
	return nil
}

func playSession(cfg *session.Config, logger *log.Logger, rng *rand.Rand) (simResult, error) {
	sess, err := session.Start(cfg, logger)
	if err != nil {
		return simResult{}, err
	}
	defer sess.Close()

	engine := sess.Engine
	res := simResult{wins: map[game.Identity]int{}}
	levels := []game.SignalLevel{game.SignalHigh, game.SignalMedium, game.SignalLow}
	calls := []game.Call{game.CallTruth, game.CallBluff}

	for !engine.Finished() {
		st := engine.PublicState()
		switch st.Phase {
		case game.PhaseWaitingStart.String():
			if err := engine.ClickStart(game.RoleP1); err != nil {
				return res, err
			}
			if err := engine.ClickStart(game.RoleP2); err != nil {
				return res, err
			}
		case game.PhaseDealing.String():
			for _, reveal := range []struct {
				role game.Role
				idx  int
			}{
				{game.RoleP1, 0}, {game.RoleP2, 0}, {game.RoleP1, 1}, {game.RoleP2, 1},
			} {
				if err := engine.ClickRevealCard(reveal.role, reveal.idx); err != nil {
					return res, err
				}
			}
		case game.PhaseSignalWait.String():
			cards := sess.Schedule.Round(st.RoundIndex).CardsOf(st.Roles[game.RoleP1])
			level, ok := game.HandCategory(cards[0], cards[1])
			if !ok {
				level = levels[rng.Intn(len(levels))]
			}
			if err := engine.Signal(level); err != nil {
				return res, err
			}
		case game.PhaseCallWait.String():
			if err := engine.MakeCall(calls[rng.Intn(len(calls))], nil); err != nil {
				return res, err
			}
		case game.PhaseRoundDone.String():
			if st.Winner != nil {
				res.wins[st.Roles[*st.Winner]]++
			} else {
				res.draws++
			}
			if err := engine.ClickNextRound(game.RoleP1); err != nil {
				return res, err
			}
			if err := engine.ClickNextRound(game.RoleP2); err != nil {
				return res, err
			}
		default:
			return res, fmt.Errorf("unexpected phase %s", st.Phase)
		}
	}
	return res, nil
}

// suffixPath turns logs/events.sqlite3 into logs/events_2.sqlite3.
func suffixPath(path string, n int) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + fmt.Sprintf("_%d", n) + ext
}
