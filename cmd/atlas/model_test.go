package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlasvoice/atlas/pkg/session"
)

func testModel() model {
	ctrl := session.NewController(session.Config{APIKey: "test-key"})
	m := newModel(ctrl)
	m.width = 100
	m.height = 30
	return m
}

func TestStateNoteUpdatesStatus(t *testing.T) {
	t.Parallel()

	m := testModel()
	updated, _ := m.Update(noteMsg{Note: session.StateNote{State: session.StateConnected}})
	m = updated.(model)

	if m.state != session.StateConnected {
		t.Fatalf("state=%v, want CONNECTED", m.state)
	}
	if !strings.Contains(m.View(), "LIVE") {
		t.Fatalf("view does not show live status")
	}
}

func TestLevelNoteDrivesMeter(t *testing.T) {
	t.Parallel()

	m := testModel()
	m.state = session.StateConnected

	updated, _ := m.Update(noteMsg{Note: session.LevelNote{Level: 0.8}})
	m = updated.(model)
	if m.level != 0.8 {
		t.Fatalf("level=%v, want 0.8", m.level)
	}
}

func TestErrorNoteShowsErrorBar(t *testing.T) {
	t.Parallel()

	m := testModel()
	updated, _ := m.Update(noteMsg{Note: session.ErrorNote{Err: session.NewConfigurationError("missing API key")}})
	m = updated.(model)

	if !strings.Contains(m.View(), "missing API key") {
		t.Fatalf("view does not surface the error")
	}
}

func TestEnterWithEmptyInputIsNoop(t *testing.T) {
	t.Parallel()

	m := testModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("expected no command for empty input")
	}
}

func TestCandidatePanelShowsCount(t *testing.T) {
	t.Parallel()

	m := testModel()
	m.candidates = []session.AutomationCandidate{{
		Title:              "自动生成周报",
		Frequency:          "每周",
		EstimatedTimeSaved: "2小时/周",
		Complexity:         session.ComplexityMedium,
	}}

	view := m.View()
	if !strings.Contains(view, "AUTOMATIONS (1)") {
		t.Fatalf("view does not show candidate count")
	}
	if !strings.Contains(view, "自动生成周报") {
		t.Fatalf("view does not show candidate title")
	}
}

func TestWrapText(t *testing.T) {
	t.Parallel()

	lines := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if len(lines) != len(want) {
		t.Fatalf("lines=%v, want %v", lines, want)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Fatalf("lines[%d]=%q, want %q", i, lines[i], line)
		}
	}
	for _, line := range lines {
		if len(line) > 9 {
			t.Fatalf("line %q exceeds width", line)
		}
	}

	if got := wrapText("", 10); len(got) != 1 || got[0] != "" {
		t.Fatalf("empty input gave %v", got)
	}
}
