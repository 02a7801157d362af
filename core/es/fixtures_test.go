package es

type (
	added struct {
		EventMeta
		Amount int `json:"amount"`
	}

	cleared struct {
		EventMeta
	}

	// unknownEvent has no handler on tally.
	unknownEvent struct {
		EventMeta
		Note string `json:"note"`
	}
)

func (*added) EventType() string        { return "tally.added" }
func (*cleared) EventType() string      { return "tally.cleared" }
func (*unknownEvent) EventType() string { return "tally.unknown" }

type tally struct {
	Root

	Total int
	Adds  int
}

var tallyHandlers = NewHandlers("tally",
	On((*tally).whenAdded),
	On((*tally).whenCleared),
)

func newTally() *tally { return &tally{} }

func (t *tally) AggregateType() string { return "tally" }
func (t *tally) Mutate(e Event) error  { return tallyHandlers.Dispatch(t, e) }
func (t *tally) Register(r Registrar)  { tallyHandlers.Register(r) }

func (t *tally) Add(n int) error { return Apply(t, &added{Amount: n}) }
func (t *tally) Clear() error    { return Apply(t, &cleared{}) }

func (t *tally) whenAdded(e *added) {
	t.Total += e.Amount
	t.Adds++
}

func (t *tally) whenCleared(*cleared) { t.Total = 0 }

var _ Aggregate = (*tally)(nil)
