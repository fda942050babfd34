package interview

import "errors"

// ErrEmptyCatalog is returned when a catalog holds no questions.
var ErrEmptyCatalog = errors.New("question catalog is empty")

// Catalog is an ordered, read-only list of interview questions.
type Catalog struct {
	questions []Question
}

// SectionCounts reports how many questions each section holds.
type SectionCounts struct {
	Technical     int `json:"technical"`
	ScenarioBased int `json:"scenario_based"`
	Behavioral    int `json:"behavioral"`
	Total         int `json:"total"`
}

// NewCatalog copies the provided questions into a catalog.
func NewCatalog(questions []Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyCatalog
	}

	items := make([]Question, len(questions))
	copy(items, questions)

	return &Catalog{questions: items}, nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.questions)
}

// At returns the question at position i in catalog order.
func (c *Catalog) At(i int) (Question, bool) {
	if c == nil || i < 0 || i >= len(c.questions) {
		return Question{}, false
	}
	return c.questions[i], true
}

// Questions returns a copy of the ordered questions.
func (c *Catalog) Questions() []Question {
	if c == nil {
		return nil
	}
	items := make([]Question, len(c.questions))
	copy(items, c.questions)
	return items
}

func (c *Catalog) SectionCounts() SectionCounts {
	counts := SectionCounts{Total: c.Len()}
	if c == nil {
		return counts
	}

	for _, q := range c.questions {
		switch q.Section {
		case SectionTechnical:
			counts.Technical++
		case SectionScenarioBased:
			counts.ScenarioBased++
		case SectionBehavioral:
			counts.Behavioral++
		}
	}

	return counts
}
