package pipeline

import (
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusCreated, "created"},
		{StatusWorking, "working"},
		{StatusFinished, "finished"},
		{StatusStopped, "stopped"},
		{StatusErrored, "errored"},
		{Status(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusCreated:  false,
		StatusWorking:  false,
		StatusFinished: true,
		StatusStopped:  true,
		StatusErrored:  true,
	}
	for s, want := range terminal {
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
		}
	}
}

func TestMachine_Transitions(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name   string
		events []event
		want   Status
	}{
		{"initial", nil, StatusCreated},
		{"pull", []event{eventPull}, StatusWorking},
		{"stop before pull", []event{eventStop}, StatusStopped},
		{"exhausted", []event{eventPull, eventExhausted}, StatusFinished},
		{"stop while working", []event{eventPull, eventStop}, StatusStopped},
		{"fail", []event{eventPull, eventFail}, StatusErrored},
		{"exhausted needs working", []event{eventExhausted}, StatusCreated},
		{"finished never reverts", []event{eventPull, eventExhausted, eventPull, eventStop, eventFail}, StatusFinished},
		{"stopped never reverts", []event{eventStop, eventPull, eventExhausted, eventFail}, StatusStopped},
		{"errored never reverts", []event{eventPull, eventFail, eventStop, eventExhausted}, StatusErrored},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newMachine(newOptions("test", nil))
			for _, ev := range tc.events {
				m.apply(ev, cause)
			}
			if got := m.Status(); got != tc.want {
				t.Errorf("status = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestMachine_StopRunsHooksOnce(t *testing.T) {
	m := newMachine(newOptions("test", nil))
	calls := 0
	m.onStopped(func() { calls++ })

	m.apply(eventStop, nil)
	m.apply(eventStop, nil)
	if calls != 1 {
		t.Errorf("stop hook ran %d times, want 1", calls)
	}
}

func TestMachine_EnterTerminalStates(t *testing.T) {
	t.Run("finished", func(t *testing.T) {
		m := newMachine(newOptions("test", nil))
		m.apply(eventPull, nil)
		m.apply(eventExhausted, nil)
		if _, _, err := m.enter(t.Context()); !errors.Is(err, errFinished) {
			t.Errorf("err = %v, want errFinished", err)
		}
	})

	t.Run("errored returns cause", func(t *testing.T) {
		m := newMachine(newOptions("test", nil))
		m.apply(eventPull, nil)
		cause := m.fail(errors.New("boom"))
		if _, _, err := m.enter(t.Context()); err != cause {
			t.Errorf("err = %v, want recorded cause", err)
		}
	})

	t.Run("stop cancels in-flight pulls", func(t *testing.T) {
		m := newMachine(newOptions("test", nil))
		ctx, release, err := m.enter(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		defer release()
		m.apply(eventStop, nil)
		if ctx.Err() == nil {
			t.Error("pull context not cancelled by stop")
		}
	})
}
