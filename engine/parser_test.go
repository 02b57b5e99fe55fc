package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "plain line",
			line: "runner booting",
			want: "runner booting",
		},
		{
			name: "colorized line",
			line: "\x1b[32mall green\x1b[0m",
			want: "all green",
		},
		{
			name: "surrounding whitespace",
			line: "  {\"event\":\"testDone\"}  \n",
			want: "{\"event\":\"testDone\"}",
		},
		{
			name: "blank line",
			line: "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanLine([]byte(tt.line)))
		})
	}
}

func TestParseWireEvent(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		wantOk bool
		want   wireEvent
	}{
		{
			name:   "testDone passed",
			line:   `{"event":"testDone","fullName":"calc adds numbers","state":"passed","durationMs":12.5}`,
			wantOk: true,
			want: wireEvent{
				Event:      EventTestDone,
				FullName:   "calc adds numbers",
				State:      "passed",
				DurationMs: 12.5,
			},
		},
		{
			name:   "testDone failed with err",
			line:   `{"event":"testDone","fullName":"calc divides","state":"failed","err":{"message":"expected 1 to equal 2","stack":"at calc.spec.js:3"}}`,
			wantOk: true,
			want: wireEvent{
				Event:    EventTestDone,
				FullName: "calc divides",
				State:    "failed",
				Err:      &wireError{Message: "expected 1 to equal 2", Stack: "at calc.spec.js:3"},
			},
		},
		{
			name:   "suiteDone root",
			line:   `{"event":"suiteDone","root":true,"description":"calc"}`,
			wantOk: true,
			want: wireEvent{
				Event:       EventSuiteDone,
				Root:        true,
				Description: "calc",
			},
		},
		{
			name:   "runner chatter",
			line:   "Executing 4 specs",
			wantOk: false,
		},
		{
			name:   "unknown event type",
			line:   `{"event":"heartbeat"}`,
			wantOk: false,
		},
		{
			name:   "malformed json",
			line:   `{"event":"testDone"`,
			wantOk: false,
		},
		{
			name:   "empty line",
			line:   "",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseWireEvent(tt.line)
			require.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestWireEvent_TestEvent(t *testing.T) {
	w := wireEvent{
		Event:      EventTestDone,
		FullName:   "calc divides",
		State:      "failed",
		Err:        &wireError{Message: "expected 1 to equal 2", Stack: "at calc.spec.js:3"},
		DurationMs: 250,
	}

	ev := w.testEvent("specs/calc.spec.js")
	assert.Equal(t, "calc divides", ev.FullName)
	assert.Equal(t, StateFailed, ev.State)
	assert.Equal(t, 250*time.Millisecond, ev.Duration)
	assert.Equal(t, "specs/calc.spec.js", ev.File)
	require.NotNil(t, ev.Err)
	assert.Equal(t, "expected 1 to equal 2", ev.Err.Message)
	assert.Equal(t, "at calc.spec.js:3", ev.Err.Stack)
}

func TestWireEvent_TestEventWithoutErr(t *testing.T) {
	w := wireEvent{Event: EventTestDone, FullName: "calc adds", State: "passed"}

	ev := w.testEvent("specs/calc.spec.js")
	assert.Equal(t, StatePassed, ev.State)
	assert.Nil(t, ev.Err, "no err object on the wire should stay nil")
}

func TestWireEvent_SuiteEventDemotesRoot(t *testing.T) {
	w := wireEvent{Event: EventSuiteDone, Root: true, Description: "calc"}

	ev := w.suiteEvent("specs/calc.spec.js")
	assert.False(t, ev.Root, "per-file root suites must not masquerade as the run root")
	assert.Equal(t, "calc", ev.Description)
	assert.Equal(t, "specs/calc.spec.js", ev.File)
}
