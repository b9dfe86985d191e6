package results

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/router"
	"github.com/unisupport/unisupport/internal/screen"
	"github.com/unisupport/unisupport/internal/session"
	"github.com/unisupport/unisupport/internal/store"
)

// failingStore saves nothing.
type failingStore struct {
	*store.Store
}

func (failingStore) PersistAttempt(context.Context, quiz.AttemptInput) (quiz.Attempt, error) {
	return quiz.Attempt{}, errors.New("disk full")
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open("file:results_" + name + "?mode=memory&cache=shared")
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
	return st
}

// completed runs a communication quiz, answering every question with B.
func completed(t *testing.T, deps *screen.Deps, st *store.Store) (*session.Controller, *session.Completion) {
	t.Helper()
	ctx := context.Background()
	cat, _, err := st.GetCategory(ctx, "communication")
	if err != nil {
		t.Fatal(err)
	}
	ctrl := deps.NewController()
	if _, err := ctrl.Begin(ctx, cat); err != nil {
		t.Fatalf("begin: %v", err)
	}
	for {
		if err := ctrl.SelectCurrent("B"); err != nil {
			t.Fatalf("select: %v", err)
		}
		comp, err := ctrl.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if comp != nil {
			return ctrl, comp
		}
	}
}

type retryScreen struct{ screen.Screen }

func TestInit_SavesAttempt(t *testing.T) {
	st := openStore(t)
	deps := &screen.Deps{Backend: st, Profile: auth.Profile{UserID: "u1"}}
	ctrl, comp := completed(t, deps, st)

	s := New(deps, ctrl, comp, nil)
	if !strings.Contains(s.View(100, 40), "Saving") {
		t.Error("view should say the result is being saved")
	}
	s.Update(s.Init()())

	if s.saving || s.saveErr != nil {
		t.Fatalf("saving=%v err=%v", s.saving, s.saveErr)
	}
	if !s.comp.Persisted() {
		t.Error("completion should carry the stored attempt")
	}
	if len(s.history) != 1 {
		t.Errorf("history = %d attempts, want 1", len(s.history))
	}

	// Communication has B correct for comm-1 and comm-4 only.
	if comp.Input.Score != 2 || comp.Band != quiz.BandLow {
		t.Errorf("score=%d band=%s, want 2 and low", comp.Input.Score, comp.Band)
	}
	view := s.View(100, 40)
	for _, want := range []string{"Score 2/4", "Saved to your history", "Correct: "} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestInit_SaveFailureKeepsResult(t *testing.T) {
	st := openStore(t)
	deps := &screen.Deps{Backend: failingStore{st}, Profile: auth.Profile{UserID: "u1"}}
	ctrl, comp := completed(t, deps, st)

	s := New(deps, ctrl, comp, nil)
	s.Update(s.Init()())

	if !errors.Is(s.saveErr, session.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", s.saveErr)
	}
	if !strings.Contains(s.View(100, 40), "could not be saved") {
		t.Error("view should warn that the result was not saved")
	}
	if !strings.Contains(s.View(100, 40), "Score 2/4") {
		t.Error("score should still be shown")
	}
}

func TestKeys(t *testing.T) {
	st := openStore(t)
	deps := &screen.Deps{Backend: st, Profile: auth.Profile{UserID: "u1"}}
	ctrl, comp := completed(t, deps, st)

	retried := &retryScreen{}
	s := New(deps, ctrl, comp, func() screen.Screen { return retried })

	if _, cmd := s.Update(tea.KeyPressMsg{Code: 'h', Text: "h"}); cmd != nil {
		t.Error("history is unavailable while saving")
	}
	s.Update(s.Init()())

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'h', Text: "h"})
	if msg, ok := cmd().(router.PushScreenMsg); !ok || msg.Screen.Title() != "History" {
		t.Errorf("h should push the history screen, got %#v", cmd())
	}

	_, cmd = s.Update(tea.KeyPressMsg{Code: 'c', Text: "c"})
	if msg, ok := cmd().(router.PushScreenMsg); !ok || msg.Screen.Title() != "Career suggestions" {
		t.Errorf("c should push the careers screen, got %#v", cmd())
	}

	_, cmd = s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	if msg, ok := cmd().(router.ReplaceScreenMsg); !ok || msg.Screen != retried {
		t.Errorf("r should replace with the retry screen, got %#v", cmd())
	}

	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("esc should pop")
	}
}

func TestScroll(t *testing.T) {
	st := openStore(t)
	deps := &screen.Deps{Backend: st, Profile: auth.Profile{UserID: "u1"}}
	ctrl, comp := completed(t, deps, st)
	s := New(deps, ctrl, comp, nil)

	for range 10 {
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	if s.scroll != len(comp.Review)-1 {
		t.Errorf("scroll = %d, want %d", s.scroll, len(comp.Review)-1)
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if s.scroll != len(comp.Review)-2 {
		t.Errorf("scroll = %d, want %d", s.scroll, len(comp.Review)-2)
	}
}
