package home

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/router"
	"github.com/unisupport/unisupport/internal/screen"
	"github.com/unisupport/unisupport/internal/screens/assessment"
	"github.com/unisupport/unisupport/internal/store"
)

func newDeps(t *testing.T) (*screen.Deps, *store.Store) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open("file:home_" + name + "?mode=memory&cache=shared")
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
	return &screen.Deps{Backend: st, Profile: auth.Profile{UserID: "u1", FullName: "Ada"}}, st
}

func TestMenuListsCategories(t *testing.T) {
	deps, st := newDeps(t)
	_, err := st.PersistAttempt(context.Background(), quiz.AttemptInput{
		UserID: "u1", CategoryID: "programming", Score: 4, TotalQuestions: 5, Answers: quiz.AnswerMap{},
	})
	if err != nil {
		t.Fatal(err)
	}

	h := New(deps)
	h.Update(h.Init()())

	var labels []string
	for _, item := range h.menu.Items {
		labels = append(labels, item.Label)
	}
	want := "Communication,Data Analysis,Programming Fundamentals,History,Career suggestions,Profile,Exit"
	if got := strings.Join(labels, ","); got != want {
		t.Errorf("menu = %s\nwant   %s", got, want)
	}
	if got := h.menu.Items[2].Hint; got != "last 4/5 (80%)" {
		t.Errorf("programming hint = %q", got)
	}
	if got := h.menu.Items[0].Hint; got != "not taken yet" {
		t.Errorf("communication hint = %q", got)
	}
	if !strings.Contains(h.View(100, 30), "Welcome, Ada.") {
		t.Error("view should greet the user")
	}
}

func TestSelectCategoryPushesQuiz(t *testing.T) {
	deps, _ := newDeps(t)
	h := New(deps)
	h.Update(h.Init()())

	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should open the quiz")
	}
	msg, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("got %T, want PushScreenMsg", cmd())
	}
	if _, ok := msg.Screen.(*assessment.AssessmentScreen); !ok || msg.Screen.Title() != "Data Analysis" {
		t.Errorf("pushed %T %q", msg.Screen, msg.Screen.Title())
	}
}

func TestResumeReloadsScores(t *testing.T) {
	deps, st := newDeps(t)
	h := New(deps)
	h.Update(h.Init()())
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})

	_, err := st.PersistAttempt(context.Background(), quiz.AttemptInput{
		UserID: "u1", CategoryID: "communication", Score: 3, TotalQuestions: 4, Answers: quiz.AnswerMap{},
	})
	if err != nil {
		t.Fatal(err)
	}
	h.Update(h.Resume()())

	if got := h.menu.Items[0].Hint; got != "last 3/4 (75%)" {
		t.Errorf("hint = %q after resume", got)
	}
	if h.menu.Selected != 1 {
		t.Errorf("selection = %d, want it kept at 1", h.menu.Selected)
	}
}
