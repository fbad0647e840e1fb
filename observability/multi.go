package observability

import "context"

// MultiObserver delivers each event to its members in order.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver combines observers. Nil and NoOpObserver members are
// dropped and nested MultiObservers are flattened, so composing the
// configured observer with a metrics observer costs one dispatch per member.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	m := &MultiObserver{}
	for _, obs := range observers {
		m.add(obs)
	}
	return m
}

func (m *MultiObserver) add(obs Observer) {
	switch o := obs.(type) {
	case nil, NoOpObserver:
	case *MultiObserver:
		if o != nil {
			m.observers = append(m.observers, o.observers...)
		}
	default:
		m.observers = append(m.observers, obs)
	}
}

// Len reports the number of member observers.
func (m *MultiObserver) Len() int {
	return len(m.observers)
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}
