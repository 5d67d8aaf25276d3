package session

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/bluffdeal/internal/eventlog"
	"github.com/lox/bluffdeal/internal/game"
	"github.com/lox/bluffdeal/internal/sessionlog"
)

// Session owns a configured engine together with its logging collaborators.
type Session struct {
	Engine   *game.GameEngine
	Schedule *game.RoundSchedule

	events  *eventlog.Logger
	records *sessionlog.Recorder
}

// Start loads the schedule, opens the audit log and the analysis CSV, and
// builds the engine. Close must be called when the session ends.
func Start(cfg *Config, logger *log.Logger) (*Session, error) {
	sched, err := game.LoadScheduleFile(cfg.Session.Schedule)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	var opts []eventlog.Option
	if cfg.Logging.CSVMirror != "" {
		opts = append(opts, eventlog.WithCSVMirror(cfg.Logging.CSVMirror))
	}
	events, err := eventlog.Open(cfg.Session.ID, cfg.Logging.Database, opts...)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	records, err := sessionlog.NewRecorder(
		cfg.SessionCSVPath(),
		cfg.Session.Identifier(),
		cfg.Session.Block,
		cfg.Session.Condition,
	)
	if err != nil {
		events.Close()
		return nil, fmt.Errorf("open session log: %w", err)
	}

	engine := game.NewGameEngine(
		game.Config{
			SessionID:    cfg.Session.ID,
			Block:        cfg.Session.Block,
			Condition:    cfg.Session.Condition,
			Stakes:       cfg.Session.Payout,
			StartPoints:  cfg.Session.StartPoints,
			PointsPerWin: cfg.Session.PointsPerWin,
		},
		sched,
		events,
		logger,
		game.WithSessionRecorder(records),
	)

	return &Session{
		Engine:   engine,
		Schedule: sched,
		events:   events,
		records:  records,
	}, nil
}

// Close flushes and closes both logging collaborators.
func (s *Session) Close() error {
	recErr := s.records.Close()
	evErr := s.events.Close()
	if recErr != nil {
		return recErr
	}
	return evErr
}
