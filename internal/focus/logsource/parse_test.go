package logsource

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/focuslog/focuslog/internal/focus/schema"
)

func localTime(t *testing.T, value string) time.Time {
	t.Helper()
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts
		}
	}
	t.Fatalf("bad test timestamp %q", value)
	return time.Time{}
}

func TestParseEvents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []schema.Event
	}{
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name: "start then summary",
			input: `Timestamp                       Thread     Type        Activity             PID    TTL
2024-03-07 09:00:00.123456+0000  0x1a2b     Default     0x0                  812    0    Raycast: [com.raycast.macos:focus] Start focus session
2024-03-07 09:00:00.123500+0000  0x1a2b     Default     0x0                  812    0    Raycast: [com.raycast.macos:focus] Goal: Writing
2024-03-07 09:25:00.000000+0000  0x1a2b     Default     0x0                  812    0    Raycast: [com.raycast.macos:focus] Focus session activity summary
2024-03-07 09:25:00.000100+0000  0x1a2b     Default     0x0                  812    0    Raycast: [com.raycast.macos:focus] Duration: 25
`,
			want: []schema.Event{
				schema.StartEvent{Goal: "Writing", Start: time.Date(2024, 3, 7, 9, 0, 0, 123456000, time.UTC)},
				schema.SummaryEvent{Duration: 25},
			},
		},
		{
			name: "start without goal is dropped",
			input: `2024-03-07 09:00:00+0000  Start focus session
2024-03-07 09:30:00+0000  Focus session activity summary
2024-03-07 09:30:00+0000  Duration: 30
`,
			want: []schema.Event{
				schema.SummaryEvent{Duration: 30},
			},
		},
		{
			name: "goal without start is ignored",
			input: `2024-03-07 09:00:00+0000  Goal: Orphan
`,
			want: nil,
		},
		{
			name: "duration outside summary mode is ignored",
			input: `2024-03-07 09:00:00+0000  Duration: 12
`,
			want: nil,
		},
		{
			name: "unparseable duration defaults to zero",
			input: `2024-03-07 09:00:00+0000  Focus session activity summary
2024-03-07 09:00:00+0000  Duration: about an hour
`,
			want: []schema.Event{schema.SummaryEvent{Duration: 0}},
		},
		{
			name: "duration with unit suffix",
			input: `2024-03-07 09:00:00+0000  Focus session activity summary
2024-03-07 09:00:00+0000  Duration: 45 minutes
`,
			want: []schema.Event{schema.SummaryEvent{Duration: 45}},
		},
		{
			name: "later start replaces unfinished start",
			input: `2024-03-07 09:00:00+0000  Start focus session
2024-03-07 10:00:00+0000  Start focus session
2024-03-07 10:00:01+0000  Goal: Reading
`,
			want: []schema.Event{
				schema.StartEvent{Goal: "Reading", Start: time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)},
			},
		},
		{
			name: "start with unreadable timestamp is dropped",
			input: `garbage Start focus session
2024-03-07 10:00:01+0000  Goal: Lost
`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvents(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseEvents() failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseEvents() returned %d events, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				assertEvent(t, i, got[i], tt.want[i])
			}
		})
	}
}

func TestParseEvents_TimestampWithoutOffset(t *testing.T) {
	input := "2024-03-07 09:00:00.500000  Start focus session\n2024-03-07 09:00:01  Goal: Local\n"

	got, err := ParseEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseEvents() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ParseEvents() returned %d events, want 1", len(got))
	}
	want := schema.StartEvent{Goal: "Local", Start: localTime(t, "2024-03-07 09:00:00.500000")}
	assertEvent(t, 0, got[0], want)
}

func TestParseEvents_InterleavedGoals(t *testing.T) {
	input := `2024-03-07 09:00:00+0000  Start focus session
2024-03-07 09:00:00+0000  Goal: A
2024-03-07 09:05:00+0000  Start focus session
2024-03-07 09:05:00+0000  Goal: B
2024-03-07 09:15:00+0000  Focus session activity summary
2024-03-07 09:15:00+0000  Duration: 10
`
	got, err := ParseEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseEvents() failed: %v", err)
	}

	var kinds []schema.EventKind
	for _, e := range got {
		kinds = append(kinds, e.Kind())
	}
	want := []schema.EventKind{schema.KindStart, schema.KindStart, schema.KindSummary}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("event kinds = %v, want %v", kinds, want)
	}
}

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: ": 25", want: 25},
		{in: ": 7 min", want: 7},
		{in: "=3", want: 3},
		{in: ":", want: 0},
		{in: "", want: 0},
		{in: ": none", want: 0},
		{in: ": 99999999999999999999", want: 0},
	}
	for _, tt := range tests {
		if got := parseLeadingInt(tt.in); got != tt.want {
			t.Errorf("parseLeadingInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func assertEvent(t *testing.T, i int, got, want schema.Event) {
	t.Helper()
	switch w := want.(type) {
	case schema.StartEvent:
		g, ok := got.(schema.StartEvent)
		if !ok {
			t.Fatalf("event %d = %v, want %v", i, got, want)
		}
		if g.Goal != w.Goal || !g.Start.Equal(w.Start) {
			t.Errorf("event %d = %v, want %v", i, g, w)
		}
	case schema.SummaryEvent:
		if got != schema.Event(w) {
			t.Errorf("event %d = %v, want %v", i, got, want)
		}
	}
}
