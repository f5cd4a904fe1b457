package cp

import "fmt"

// Cause identifies who requested a domain modification. Every propagator is
// a Cause; decisions taken outside propagation use Decision.
type Cause interface {
	ID() int
	String() string
}

type decision struct{}

func (decision) ID() int        { return -1 }
func (decision) String() string { return "decision" }

// Decision is the cause of modifications made by the search component or by
// any caller outside a propagation pass.
var Decision Cause = decision{}

// VarKind tells variable kinds apart.
type VarKind int

const (
	// KindInt is a bounded integer variable.
	KindInt VarKind = iota
	// KindSet is a set variable.
	KindSet
	// KindGraph is a directed graph variable.
	KindGraph
)

func (k VarKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindSet:
		return "set"
	case KindGraph:
		return "graph"
	default:
		return fmt.Sprintf("VarKind(%d)", int(k))
	}
}

// Variable is the capability surface shared by all variable kinds. The set of
// kinds is closed: IntVar, SetVar and GraphVar.
type Variable interface {
	// ID is the variable's index in its model.
	ID() int
	Name() string
	Kind() VarKind
	IsInstantiated() bool
	// DomainSize is a kind-specific measure of remaining freedom; it is 1
	// for an instantiated integer and 0 for instantiated set and graph
	// variables.
	DomainSize() int
	// Monitor creates a delta monitor owned by the given propagator.
	Monitor(owner Cause) *DeltaMonitor
	String() string

	base() *varBase
	duplicate(dst *Model) Variable
}

type subscription struct {
	p   Propagator
	idx int
}

// varBase holds what every variable kind shares.
type varBase struct {
	id    int
	name  string
	model *Model
	delta *Delta
	subs  []subscription
}

func (v *varBase) base() *varBase { return v }

// ID returns the variable's index in its model.
func (v *varBase) ID() int { return v.id }

// Name returns the variable's name.
func (v *varBase) Name() string { return v.name }

// Model returns the owning model.
func (v *varBase) Model() *Model { return v.model }

// Delta returns the variable's event log.
func (v *varBase) Delta() *Delta { return v.delta }

// Monitor creates a delta monitor owned by the given propagator.
func (v *varBase) Monitor(owner Cause) *DeltaMonitor {
	return newDeltaMonitor(v.delta, owner)
}

// Subscribers returns the number of propagators watching the variable.
func (v *varBase) Subscribers() int { return len(v.subs) }

func (v *varBase) link(p Propagator, idx int) {
	v.subs = append(v.subs, subscription{p: p, idx: idx})
}

// changed records the event and wakes subscribers.
func (v *varBase) changed(self Variable, kind EventType, a, b int, cause Cause) {
	v.delta.append(DeltaEvent{Kind: kind, A: a, B: b, Cause: cause})
	v.model.notify(self, kind, cause)
}

func contradiction(v Variable, op string, cause Cause, format string, args ...any) error {
	return &Contradiction{Var: v, Op: op, Detail: fmt.Sprintf(format, args...), Cause: cause}
}
