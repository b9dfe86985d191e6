package history

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/screen"
	"github.com/unisupport/unisupport/internal/store"
)

func newDeps(t *testing.T) (*screen.Deps, *store.Store) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open("file:historyscreen_" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	seed, err := store.DefaultSeed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := st.Import(t.Context(), seed); err != nil {
		t.Fatalf("import: %v", err)
	}
	return &screen.Deps{Backend: st, Profile: auth.Profile{UserID: "u1"}}, st
}

func persist(t *testing.T, st *store.Store, categoryID string, score int, at time.Time) {
	t.Helper()
	_, err := st.PersistAttempt(context.Background(), quiz.AttemptInput{
		UserID:         "u1",
		CategoryID:     categoryID,
		Score:          score,
		TotalQuestions: 4,
		Answers:        quiz.AnswerMap{"q1": "A"},
		TimeTakenSecs:  75,
		CreatedAt:      at,
	})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
}

// run executes cmd and feeds its messages, including batched ones, to s.
func run(s *HistoryScreen, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(s, c)
		}
	default:
		s.Update(msg)
	}
}

func press(s *HistoryScreen, k tea.KeyPressMsg) {
	_, cmd := s.Update(k)
	run(s, cmd)
}

func TestAll_NewestFirst(t *testing.T) {
	deps, st := newDeps(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	persist(t, st, "communication", 2, base)
	persist(t, st, "programming", 3, base.Add(time.Hour))

	s := New(deps, "")
	run(s, s.Init())

	if !s.loaded || s.errMsg != "" {
		t.Fatalf("loaded=%v err=%q", s.loaded, s.errMsg)
	}
	if len(s.attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(s.attempts))
	}
	if s.attempts[0].CategoryID != "programming" {
		t.Errorf("first = %s, want the newest (programming)", s.attempts[0].CategoryID)
	}
	if len(s.filters) != 4 || s.filters[1].Name != "Communication" {
		t.Errorf("filters = %+v, want All plus three categories", s.filters)
	}

	view := s.View(120, 40)
	if !strings.Contains(view, "Latest: Programming Fundamentals 3/4 (75%)") {
		t.Errorf("view missing latest line:\n%s", view)
	}
}

func TestFilterByCategory(t *testing.T) {
	deps, st := newDeps(t)
	now := time.Now()
	persist(t, st, "communication", 2, now.Add(-time.Hour))
	persist(t, st, "programming", 3, now)

	s := New(deps, "")
	run(s, s.Init())

	// All -> Communication.
	press(s, tea.KeyPressMsg{Code: tea.KeyRight})
	if s.current().ID != "communication" {
		t.Fatalf("filter = %q, want communication", s.current().ID)
	}
	if len(s.attempts) != 1 || s.attempts[0].CategoryID != "communication" {
		t.Fatalf("attempts = %+v, want the communication attempt", s.attempts)
	}

	// Wraps from All back to the last category.
	press(s, tea.KeyPressMsg{Code: tea.KeyLeft})
	press(s, tea.KeyPressMsg{Code: tea.KeyLeft})
	if s.current().ID != "programming" {
		t.Fatalf("filter = %q, want programming", s.current().ID)
	}
	if len(s.attempts) != 1 || s.attempts[0].Score != 3 {
		t.Fatalf("attempts = %+v", s.attempts)
	}
}

func TestStartsOnGivenCategory(t *testing.T) {
	deps, st := newDeps(t)
	persist(t, st, "programming", 1, time.Now())
	persist(t, st, "communication", 4, time.Now())

	s := New(deps, "programming")
	run(s, s.Init())

	if s.current().ID != "programming" || s.current().Name != "Programming Fundamentals" {
		t.Fatalf("filter = %+v", s.current())
	}
	if len(s.attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(s.attempts))
	}
}

func TestStaleLoadIgnored(t *testing.T) {
	deps, st := newDeps(t)
	persist(t, st, "programming", 1, time.Now())

	s := New(deps, "")
	run(s, s.loadCategories)
	slow := s.load("")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyRight})

	run(s, cmd)
	s.Update(slow())
	if s.current().ID != "communication" || len(s.attempts) != 0 {
		t.Errorf("filter=%q attempts=%d, want communication with none", s.current().ID, len(s.attempts))
	}
}

func TestExpandAndEmpty(t *testing.T) {
	deps, st := newDeps(t)

	s := New(deps, "")
	run(s, s.Init())
	if !strings.Contains(s.View(100, 30), "No attempts yet") {
		t.Error("empty history should say so")
	}

	persist(t, st, "programming", 3, time.Now())
	s = New(deps, "")
	run(s, s.Init())
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !s.expanded[s.attempts[0].ID] {
		t.Fatal("enter should expand the selected attempt")
	}
	if !strings.Contains(s.View(120, 30), "q1: A") {
		t.Error("expanded attempt should list its answers")
	}
}
