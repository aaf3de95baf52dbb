package service

import (
	_ "embed"
	"fmt"

	"salesflow_backend/internal/pipeline/repository"

	"gopkg.in/yaml.v3"
)

const (
	// IntakeKey is the stage every new lead starts in.
	IntakeKey = "lead"
	// WonKey and LostKey are reserved terminal stages.
	WonKey  = "Won"
	LostKey = "Lost"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type defaultsFile struct {
	Columns []struct {
		Key         string `yaml:"key"`
		Title       string `yaml:"title"`
		Color       string `yaml:"color"`
		Probability int    `yaml:"probability"`
	} `yaml:"columns"`
}

var intakeColumn = repository.Column{Key: IntakeKey, Title: "New Lead", Color: "#3b82f6", Probability: 10}

var terminalColumns = map[string]repository.Column{
	WonKey:  {Key: WonKey, Title: "Won", Color: "#22c55e", Probability: 100},
	LostKey: {Key: LostKey, Title: "Lost", Color: "#ef4444", Probability: 0},
}

// DefaultColumns parses the embedded default board.
func DefaultColumns() ([]repository.Column, error) {
	var file defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &file); err != nil {
		return nil, fmt.Errorf("parse default pipeline: %w", err)
	}

	columns := make([]repository.Column, 0, len(file.Columns))
	for i, c := range file.Columns {
		columns = append(columns, repository.Column{
			Key:         c.Key,
			Title:       c.Title,
			Color:       c.Color,
			Probability: c.Probability,
			Position:    i,
		})
	}
	return columns, nil
}

// IsTerminal reports whether key is Won or Lost.
func IsTerminal(key string) bool {
	_, ok := terminalColumns[key]
	return ok
}

// normalize puts the intake column first and Won, Lost last, synthesizing
// any of them that are missing, and renumbers positions.
func normalize(columns []repository.Column) []repository.Column {
	var intake *repository.Column
	terminal := make(map[string]repository.Column, 2)
	active := make([]repository.Column, 0, len(columns))

	for _, col := range columns {
		switch {
		case col.Key == IntakeKey:
			c := col
			intake = &c
		case IsTerminal(col.Key):
			col.Probability = terminalColumns[col.Key].Probability
			terminal[col.Key] = col
		default:
			active = append(active, col)
		}
	}

	if intake == nil {
		c := intakeColumn
		intake = &c
	}

	out := make([]repository.Column, 0, len(active)+3)
	out = append(out, *intake)
	out = append(out, active...)
	for _, key := range []string{WonKey, LostKey} {
		if col, ok := terminal[key]; ok {
			out = append(out, col)
		} else {
			out = append(out, terminalColumns[key])
		}
	}

	for i := range out {
		out[i].Position = i
	}
	return out
}
