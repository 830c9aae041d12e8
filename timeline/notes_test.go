package timeline

import (
	"math"
	"testing"

	"github.com/richinsley/songshader/clock"
)

func TestNoteStatesAt(t *testing.T) {
	events := EventList{
		{Time: 0, Kind: KindNote, Target: 1, Velocity: 1, Duration: 100},
		{Time: 50, Kind: KindNote, Target: 1, Velocity: 0.5, Duration: 200},
		{Time: 200, Kind: KindNote, Target: 2, Velocity: 0.8, Duration: 100},
		{Time: 0, Kind: KindNote, Target: 9, Velocity: 1, Duration: 1000},
		{Time: 0, Kind: KindVideo, Video: "a.mp4", Duration: 1000},
	}
	n := NewNoteStates(events, 4, nil)
	n.Release = 100

	tests := []struct {
		ms   float64
		want []float32
	}{
		{0, []float32{0, 1, 0, 0}},
		{75, []float32{0, 1, 0, 0}},
		{120, []float32{0, 0.8, 0, 0}}, // first note fading, second held
		{250, []float32{0, 0.5, 0.8, 0}},
		{300, []float32{0, 0.25, 0.8, 0}},
		{350, []float32{0, 0, 0.4, 0}},
		{500, []float32{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		got := n.At(tt.ms)
		if len(got) != 4 {
			t.Fatalf("At(%v) has %d targets", tt.ms, len(got))
		}
		for i := range got {
			if math.Abs(float64(got[i]-tt.want[i])) > 1e-5 {
				t.Errorf("At(%v) = %v, want %v", tt.ms, got, tt.want)
				break
			}
		}
	}
}

func TestNoteStatesFollowClock(t *testing.T) {
	events := EventList{{Time: 1000, Kind: KindNote, Target: 0, Velocity: 1, Duration: 1000}}
	synthetic := clock.NewSynthetic(1)
	n := NewNoteStates(events, 2, synthetic)

	if s := n.TargetNoteStates(); s[0] != 0 {
		t.Errorf("frame 0: %v", s)
	}
	synthetic.Advance()
	first := n.TargetNoteStates()
	if first[0] != 1 {
		t.Errorf("frame 1: %v", first)
	}
	first[0] = 42
	if again := n.TargetNoteStates(); again[0] != 1 {
		t.Error("TargetNoteStates returned a shared slice")
	}

	n.SetClock(clock.Func(func() float64 { return 5 }))
	if s := n.TargetNoteStates(); s[0] != 0 {
		t.Errorf("after SetClock: %v", s)
	}
}

func TestNoteStatesZeroDuration(t *testing.T) {
	events, err := Parse([]byte("- {time: 0, target: 0}\n- {time: 2000, target: 1}"))
	if err != nil {
		t.Fatal(err)
	}
	n := NewNoteStates(events, 2, nil)
	tests := []struct {
		ms   float64
		want []float32
	}{
		{0, []float32{1, 0}},
		{1, []float32{1, 0}},
		{1999, []float32{1, 0}},
		{2000, []float32{1, 1}},
		{2001, []float32{1, 1}},
	}
	for _, tt := range tests {
		if got := n.At(tt.ms); got[0] != tt.want[0] || got[1] != tt.want[1] {
			t.Errorf("At(%v) = %v, want %v", tt.ms, got, tt.want)
		}
	}
}

func TestNoteStatesZeroDurationHoldsUntilNextNote(t *testing.T) {
	events := EventList{
		{Time: 0, Kind: KindNote, Target: 0, Velocity: 1},
		{Time: 500, Kind: KindNote, Target: 1, Velocity: 1, Duration: 100},
		{Time: 1000, Kind: KindNote, Target: 0, Velocity: 0.5},
	}
	n := NewNoteStates(events, 2, nil)
	n.Release = 200

	tests := []struct {
		ms   float64
		want float32
	}{
		{500, 1},
		{999, 1},
		{1000, 1}, // first note starts its release
		{1050, 0.75},
		{1100, 0.5},
		{1e6, 0.5},
	}
	for _, tt := range tests {
		if got := n.At(tt.ms)[0]; math.Abs(float64(got-tt.want)) > 1e-5 {
			t.Errorf("At(%v)[0] = %v, want %v", tt.ms, got, tt.want)
		}
	}
}
