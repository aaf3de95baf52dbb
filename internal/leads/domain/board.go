// Package domain holds the pipeline state machine rules for leads. Nothing
// here touches persistence.
package domain

const (
	// StageIntake is the stage every created lead starts in.
	StageIntake = "lead"
	StageWon    = "Won"
	StageLost   = "Lost"
)

// Column is the part of a pipeline column the state machine needs.
type Column struct {
	Key         string
	Title       string
	Probability int
}

// Board is a tenant's set of valid stages. Won and Lost are always present.
type Board struct {
	order   []string
	columns map[string]Column
}

// NewBoard builds a board from ordered columns, adding the intake, Won and
// Lost stages when they are missing.
func NewBoard(columns []Column) Board {
	b := Board{columns: make(map[string]Column, len(columns)+3)}
	add := func(c Column) {
		if _, ok := b.columns[c.Key]; ok {
			return
		}
		b.columns[c.Key] = c
		b.order = append(b.order, c.Key)
	}

	add(Column{Key: StageIntake, Title: "New Lead", Probability: 10})
	for _, c := range columns {
		if c.Key == StageIntake {
			b.columns[StageIntake] = c
			continue
		}
		if c.Key == StageWon || c.Key == StageLost {
			continue
		}
		add(c)
	}
	add(Column{Key: StageWon, Title: "Won", Probability: 100})
	add(Column{Key: StageLost, Title: "Lost", Probability: 0})

	for _, c := range columns {
		if c.Key == StageWon || c.Key == StageLost {
			c.Probability = b.columns[c.Key].Probability
			b.columns[c.Key] = c
		}
	}
	return b
}

// Has reports whether key is a valid stage on this board.
func (b Board) Has(key string) bool {
	_, ok := b.columns[key]
	return ok
}

// Column returns the column for key.
func (b Board) Column(key string) (Column, bool) {
	c, ok := b.columns[key]
	return c, ok
}

// Intake returns the intake column.
func (b Board) Intake() Column {
	return b.columns[StageIntake]
}

// Keys returns stage keys in board order.
func (b Board) Keys() []string {
	return append([]string(nil), b.order...)
}

// IsClosed reports whether stage is Won or Lost.
func IsClosed(stage string) bool {
	return stage == StageWon || stage == StageLost
}
