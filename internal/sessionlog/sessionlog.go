// Package sessionlog writes the per-session analysis CSV: one row per
// participant-visible action, flattened for the experimenters' tooling.
// It implements game.SessionRecorder.
package sessionlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lox/bluffdeal/internal/game"
)

var header = []string{
	"Session",
	"Block",
	"Condition",
	"Round",
	"Player",
	"Participant",
	"VP1 Card1",
	"VP1 Card2",
	"VP2 Card1",
	"VP2 Card2",
	"Action",
	"Time",
	"Winner",
	"VP1 Points",
	"VP2 Points",
}

// Recorder appends analysis rows to a CSV file. System events are skipped
// except the reveal/score row, which carries the round result. The header
// is written once, only when the file is new or empty.
type Recorder struct {
	path        string
	session     string
	block       int
	condition   string
	writeHeader bool
	file        *os.File
	w           *csv.Writer
}

// NewRecorder opens (or creates) the analysis CSV at path.
func NewRecorder(path, session string, block int, condition string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session log dir: %w", err)
		}
	}
	writeHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		writeHeader = false
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}
	return &Recorder{
		path:        path,
		session:     session,
		block:       block,
		condition:   condition,
		writeHeader: writeHeader,
		file:        f,
		w:           csv.NewWriter(f),
	}, nil
}

// Record writes one analysis row for the entry, or nothing for system
// events other than reveal/score.
func (r *Recorder) Record(rec game.SessionRecord) error {
	e := rec.Entry
	if e.Actor == game.ActorSys && e.Action != game.ActionRevealAndScore {
		return nil
	}

	if r.writeHeader {
		if err := r.w.Write(header); err != nil {
			return fmt.Errorf("write session log header: %w", err)
		}
		r.writeHeader = false
	}

	var participant string
	switch e.Actor {
	case game.ActorP1:
		participant = string(rec.Roles.P1)
	case game.ActorP2:
		participant = string(rec.Roles.P2)
	}

	player := string(e.Actor)
	if e.Actor == game.ActorSys {
		player = ""
	}

	winner := ""
	if w, ok := e.Payload["winner"].(string); ok {
		winner = w
	} else if rec.Winner != nil {
		winner = string(*rec.Winner)
	}

	scoreVP1, scoreVP2 := "", ""
	if rec.Scores != nil {
		scoreVP1 = strconv.Itoa(rec.Scores[game.VP1])
		scoreVP2 = strconv.Itoa(rec.Scores[game.VP2])
	}

	row := []string{
		r.session,
		strconv.Itoa(r.block),
		r.condition,
		strconv.Itoa(e.RoundIndex + 1),
		player,
		participant,
		strconv.Itoa(rec.Plan.VP1Cards[0]),
		strconv.Itoa(rec.Plan.VP1Cards[1]),
		strconv.Itoa(rec.Plan.VP2Cards[0]),
		strconv.Itoa(rec.Plan.VP2Cards[1]),
		actionLabel(e),
		e.LoggedAt.Format(time.RFC3339Nano),
		winner,
		scoreVP1,
		scoreVP2,
	}
	if err := r.w.Write(row); err != nil {
		return fmt.Errorf("write session log row: %w", err)
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("flush session log: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (r *Recorder) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

func actionLabel(e game.Entry) string {
	switch e.Action {
	case game.ActionStartClick:
		return "Start"
	case game.ActionNextRoundClick:
		return "Next round"
	case game.ActionSignal:
		if v, ok := e.Payload["level"].(string); ok {
			return v
		}
	case game.ActionCall:
		if v, ok := e.Payload["call"].(string); ok {
			return v
		}
	case game.ActionRevealCard:
		if idx, ok := e.Payload["card_idx"].(int); ok {
			return fmt.Sprintf("Card %d", idx+1)
		}
	case game.ActionPhaseChange:
		return fmt.Sprintf("Phase -> %v", e.Payload["to"])
	case game.ActionRevealAndScore:
		return "Reveal/Score"
	}
	return e.Action
}
