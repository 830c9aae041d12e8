package timeline

import (
	"math"
	"sync"

	"github.com/richinsley/songshader/clock"
)

// NoteStates computes per-target activation from note events at the time
// reported by its clock. Each call returns a fresh slice.
//
// A note without a duration holds until the next note on its target; the
// last one on a target holds for the rest of the song.
type NoteStates struct {
	// Release is the linear fade after a note ends, in milliseconds.
	Release float64

	mu     sync.RWMutex
	notes  EventList
	ends   []float64
	width  int
	source clock.Source
}

func NewNoteStates(events EventList, width int, source clock.Source) *NoteStates {
	n := &NoteStates{width: width, source: source}
	n.SetEvents(events)
	return n
}

// SetEvents replaces the song being visualized.
func (n *NoteStates) SetEvents(events EventList) {
	notes := events.Filter(KindNote)
	ends := make([]float64, len(notes))
	next := make(map[int]float64)
	for i := len(notes) - 1; i >= 0; i-- {
		e := notes[i]
		ends[i] = e.End()
		if e.Duration == 0 {
			ends[i] = math.Inf(1)
			if t, ok := next[e.Target]; ok {
				ends[i] = t
			}
		}
		next[e.Target] = e.Time
	}
	n.mu.Lock()
	n.notes = notes
	n.ends = ends
	n.mu.Unlock()
}

// SetClock changes where the current time is read from.
func (n *NoteStates) SetClock(source clock.Source) {
	n.mu.Lock()
	n.source = source
	n.mu.Unlock()
}

// Width returns the number of targets.
func (n *NoteStates) Width() int { return n.width }

// TargetNoteStates returns the activation of every target now.
func (n *NoteStates) TargetNoteStates() []float32 {
	n.mu.RLock()
	source := n.source
	n.mu.RUnlock()
	var ms float64
	if source != nil {
		ms = source.Seconds() * 1000
	}
	return n.At(ms)
}

// At returns the activation of every target at ms. Overlapping notes on a
// target keep the strongest value.
func (n *NoteStates) At(ms float64) []float32 {
	states := make([]float32, n.width)
	n.mu.RLock()
	defer n.mu.RUnlock()
	for i, e := range n.notes {
		if e.Time > ms {
			break
		}
		if e.Target >= n.width {
			continue
		}
		var v float32
		end := n.ends[i]
		switch {
		case ms < end:
			v = e.Velocity
		case n.Release > 0 && ms < end+n.Release:
			v = e.Velocity * float32(1-(ms-end)/n.Release)
		}
		states[e.Target] = max(states[e.Target], v)
	}
	return states
}
