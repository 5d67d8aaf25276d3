package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lox/bluffdeal/internal/game"
	"github.com/lox/bluffdeal/internal/session"
)

// RunCmd drives a session interactively from stdin. It is the "UI layer"
// caller from the engine's point of view: one line per player action.
type RunCmd struct {
	Config string `help:"Path to session config (HCL)" default:"bluffdeal.hcl"`
	Debug  bool   `help:"Enable debug logging"`
}

func (c *RunCmd) Run() error {
	logger := newLogger(c.Debug)

	cfg, err := session.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	sess, err := session.Start(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	engine := sess.Engine
	logger.Info("session started",
		"session", cfg.Session.ID,
		"rounds", sess.Schedule.Len(),
		"payout", cfg.Session.Payout)
	fmt.Println("commands: start <p1|p2> | reveal <p1|p2> <0|1> | signal <high|medium|low> | call <truth|bluff> | next <p1|p2> | state | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(strings.ToLower(line))

		var cmdErr error
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "state":
			printState(engine)
			continue
		case "start":
			role, err := parseRole(fields, 1)
			if err != nil {
				cmdErr = err
				break
			}
			cmdErr = engine.ClickStart(role)
		case "reveal":
			role, err := parseRole(fields, 1)
			if err != nil {
				cmdErr = err
				break
			}
			if len(fields) < 3 {
				cmdErr = fmt.Errorf("usage: reveal <p1|p2> <0|1>")
				break
			}
			idx, err := strconv.Atoi(fields[2])
			if err != nil {
				cmdErr = fmt.Errorf("card index: %w", err)
				break
			}
			cmdErr = engine.ClickRevealCard(role, idx)
		case "signal":
			if len(fields) < 2 {
				cmdErr = fmt.Errorf("usage: signal <high|medium|low>")
				break
			}
			cmdErr = engine.Signal(game.SignalLevel(fields[1]))
		case "call":
			if len(fields) < 2 {
				cmdErr = fmt.Errorf("usage: call <truth|bluff>")
				break
			}
			cmdErr = engine.MakeCall(game.Call(fields[1]), nil)
		case "next":
			role, err := parseRole(fields, 1)
			if err != nil {
				cmdErr = err
				break
			}
			cmdErr = engine.ClickNextRound(role)
		default:
			cmdErr = fmt.Errorf("unknown command %q", fields[0])
		}

		if cmdErr != nil {
			logger.Error("action rejected", "error", cmdErr)
			continue
		}

		st := engine.PublicState()
		if st.OutcomeReason != "" && st.Phase == game.PhaseRoundDone.String() {
			fmt.Println(st.OutcomeReason)
		}
		if engine.Finished() {
			logger.Info("session finished")
			return nil
		}
	}
	return scanner.Err()
}

func parseRole(fields []string, pos int) (game.Role, error) {
	if len(fields) <= pos {
		return "", fmt.Errorf("missing role (p1 or p2)")
	}
	switch fields[pos] {
	case "p1":
		return game.RoleP1, nil
	case "p2":
		return game.RoleP2, nil
	}
	return "", fmt.Errorf("unknown role %q", fields[pos])
}

func printState(engine *game.GameEngine) {
	out, err := json.MarshalIndent(engine.PublicState(), "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(out))
}
