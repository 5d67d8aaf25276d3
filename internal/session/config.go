// Package session loads experiment session configuration and wires the
// engine to its logging collaborators.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents a complete session configuration file.
type Config struct {
	Session SessionSettings `hcl:"session,block"`
	Logging LoggingSettings `hcl:"logging,block"`
}

// SessionSettings describes one experiment session.
type SessionSettings struct {
	ID           string `hcl:"id"`
	Schedule     string `hcl:"schedule"`
	Number       int    `hcl:"number,optional"`
	Block        int    `hcl:"block,optional"`
	Condition    string `hcl:"condition,optional"`
	Payout       bool   `hcl:"payout,optional"`
	StartPoints  int    `hcl:"start_points,optional"`
	PointsPerWin int    `hcl:"points_per_win,optional"`
}

// LoggingSettings controls where the audit trail and analysis files go.
type LoggingSettings struct {
	Dir       string `hcl:"dir,optional"`
	Database  string `hcl:"database,optional"`
	CSVMirror string `hcl:"csv_mirror,optional"`
	Level     string `hcl:"level,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionSettings{
			ID:        "session_1",
			Schedule:  "schedule.csv",
			Block:     1,
			Condition: "no_payout",
		},
		Logging: LoggingSettings{
			Dir:      "logs",
			Database: filepath.Join("logs", "events.sqlite3"),
			Level:    "info",
		},
	}
}

// LoadConfig loads a session configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(c *Config) {
	if c.Session.Block == 0 {
		c.Session.Block = 1
	}
	if c.Session.Condition == "" {
		c.Session.Condition = "no_payout"
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
	if c.Logging.Database == "" {
		c.Logging.Database = filepath.Join(c.Logging.Dir, "events.sqlite3")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// EffectiveNumber returns the configured session number, falling back to the
// digits embedded in the session id. Zero means no number is known.
func (s SessionSettings) EffectiveNumber() int {
	if s.Number != 0 {
		return s.Number
	}
	n := 0
	found := false
	for _, r := range s.ID {
		if unicode.IsDigit(r) {
			n = n*10 + int(r-'0')
			found = true
		}
	}
	if !found {
		return 0
	}
	return n
}

// Identifier returns the value used to name session files: the session
// number when known, the raw id otherwise.
func (s SessionSettings) Identifier() string {
	if n := s.EffectiveNumber(); n != 0 {
		return fmt.Sprintf("%d", n)
	}
	return s.ID
}

// SessionCSVPath returns the analysis CSV location for this session, keyed
// by session identifier and condition.
func (c *Config) SessionCSVPath() string {
	name := fmt.Sprintf("session_%s_%s.csv", c.Session.Identifier(), conditionSlug(c.Session.Condition))
	return filepath.Join(c.Logging.Dir, name)
}

// conditionSlug sanitizes a condition label for use in filenames: lowercase,
// with anything outside [a-z0-9-_] replaced by an underscore.
func conditionSlug(condition string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(condition) {
		if unicode.IsLetter(r) && r <= unicode.MaxASCII || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
