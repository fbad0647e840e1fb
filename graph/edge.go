package graph

// Predicate decides whether an edge can be traversed.
type Predicate[S any] func(state S) bool

// Edge is a transition between two nodes. A nil Predicate always transitions.
type Edge[S any] struct {
	From      string
	To        string
	Name      string
	Predicate Predicate[S]
}
