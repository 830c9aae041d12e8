// Package timeline holds the song's event list and derives from it what the
// renderer consumes each frame: per-target note activation and the active
// video frame.
package timeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Kind distinguishes note events from video events.
type Kind string

const (
	KindNote  Kind = "note"
	KindVideo Kind = "video"
)

// Event is one timestamped activation.
type Event struct {
	Time     float64 `yaml:"time"`               // milliseconds
	Kind     Kind    `yaml:"kind,omitempty"`     // note when empty
	Target   int     `yaml:"target,omitempty"`   // note-state index
	Velocity float32 `yaml:"velocity,omitempty"` // 0..1, 1 when empty
	Duration float64 `yaml:"duration,omitempty"` // milliseconds
	Video    string  `yaml:"video,omitempty"`    // path of the clip or still image
}

// End returns the time the event stops being active.
func (e Event) End() float64 { return e.Time + e.Duration }

// EventList is ordered by time.
type EventList []Event

type eventFile struct {
	Events EventList `yaml:"events"`
}

// Load reads an event list from a YAML or JSON file. The file is either a
// bare list of events or a mapping with an "events" key. Relative video
// paths are resolved against the file's directory.
func Load(path string) (EventList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read event list: %w", err)
	}
	events, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range events {
		if events[i].Video != "" && !filepath.IsAbs(events[i].Video) {
			events[i].Video = filepath.Join(dir, events[i].Video)
		}
	}
	return events, nil
}

// Parse decodes and validates an event list.
func Parse(data []byte) (EventList, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("invalid event list: %w", err)
	}
	var events EventList
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
		var f eventFile
		if err := node.Decode(&f); err != nil {
			return nil, fmt.Errorf("invalid event list: %w", err)
		}
		events = f.Events
	} else if err := node.Decode(&events); err != nil {
		return nil, fmt.Errorf("invalid event list: %w", err)
	}
	if err := events.normalize(); err != nil {
		return nil, err
	}
	return events, nil
}

func (l EventList) normalize() error {
	for i := range l {
		e := &l[i]
		if e.Kind == "" {
			e.Kind = KindNote
		}
		if e.Time < 0 {
			return fmt.Errorf("event %d: negative time %v", i, e.Time)
		}
		if e.Duration < 0 {
			return fmt.Errorf("event %d: negative duration %v", i, e.Duration)
		}
		switch e.Kind {
		case KindNote:
			if e.Target < 0 {
				return fmt.Errorf("event %d: negative target %d", i, e.Target)
			}
			if e.Velocity == 0 {
				e.Velocity = 1
			}
			if e.Velocity < 0 || e.Velocity > 1 {
				return fmt.Errorf("event %d: velocity %v outside 0..1", i, e.Velocity)
			}
		case KindVideo:
			if e.Video == "" {
				return fmt.Errorf("event %d: video event without a video", i)
			}
		default:
			return fmt.Errorf("event %d: unknown kind %q", i, e.Kind)
		}
	}
	sort.SliceStable(l, func(i, j int) bool { return l[i].Time < l[j].Time })
	return nil
}

// LastTimestamp returns the time of the final event.
func (l EventList) LastTimestamp() (float64, bool) {
	if len(l) == 0 {
		return 0, false
	}
	return l[len(l)-1].Time, true
}

// Duration returns the time the last event stops being active.
func (l EventList) Duration() float64 {
	var end float64
	for _, e := range l {
		end = max(end, e.End())
	}
	return end
}

// Filter returns the events of kind k, in order.
func (l EventList) Filter(k Kind) EventList {
	var out EventList
	for _, e := range l {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
