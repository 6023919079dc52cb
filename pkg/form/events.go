package form

import "sync"

// EventKind names the events a Controller dispatches.
type EventKind string

const (
	// EventChange fires after a field value changes.
	EventChange EventKind = "change"
	// EventReset fires after every field has been restored to its default.
	EventReset EventKind = "reset"
)

// Event is delivered to listeners. Changed and All are empty for resets.
type Event struct {
	Kind    EventKind
	Form    string
	Changed Values
	All     Values
}

// Listener handles a controller event.
type Listener func(Event)

// ListenerID identifies a subscription for RemoveEventListener.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

type listeners struct {
	mu     sync.Mutex
	nextID ListenerID
	byKind map[EventKind][]listenerEntry
}

func newListeners() *listeners {
	return &listeners{byKind: make(map[EventKind][]listenerEntry)}
}

func (l *listeners) add(kind EventKind, fn Listener) ListenerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.byKind[kind] = append(l.byKind[kind], listenerEntry{id: l.nextID, fn: fn})
	return l.nextID
}

func (l *listeners) remove(kind EventKind, id ListenerID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.byKind[kind]
	for i, entry := range entries {
		if entry.id != id {
			continue
		}
		next := make([]listenerEntry, 0, len(entries)-1)
		next = append(next, entries[:i]...)
		next = append(next, entries[i+1:]...)
		l.byKind[kind] = next
		return true
	}
	return false
}

// dispatch invokes a snapshot of the listener list; subscriptions added or
// removed by a listener apply from the next dispatch on.
func (l *listeners) dispatch(evt Event) {
	l.mu.Lock()
	entries := append([]listenerEntry(nil), l.byKind[evt.Kind]...)
	l.mu.Unlock()

	for _, entry := range entries {
		entry.fn(evt)
	}
}
