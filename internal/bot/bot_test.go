package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/recommend"
	"github.com/unisupport/unisupport/internal/store"
)

type fakeSender struct {
	mu        sync.Mutex
	sent      []tgbotapi.MessageConfig
	callbacks int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := c.(tgbotapi.CallbackConfig); ok {
		f.callbacks++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

// buttons returns the callback data of every inline button of msg.
func buttons(msg tgbotapi.MessageConfig) []string {
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				out = append(out, *b.CallbackData)
			}
		}
	}
	return out
}

func buttonWithPrefix(t *testing.T, msg tgbotapi.MessageConfig, prefix string) string {
	t.Helper()
	for _, data := range buttons(msg) {
		if strings.HasPrefix(data, prefix) {
			return data
		}
	}
	t.Fatalf("no button %q in %v", prefix, buttons(msg))
	return ""
}

func answerButton(t *testing.T, msg tgbotapi.MessageConfig, key string) string {
	t.Helper()
	for _, data := range buttons(msg) {
		if strings.HasPrefix(data, callbackAnswer) && strings.HasSuffix(data, ":"+key) {
			return data
		}
	}
	t.Fatalf("no answer button %q in %v", key, buttons(msg))
	return ""
}

type fakeGenerator struct {
	calls int
	err   error
}

func (g *fakeGenerator) GenerateRecommendations(context.Context, auth.Profile, []quiz.Attempt) ([]recommend.Recommendation, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return []recommend.Recommendation{{
		Title:           "Backend Developer",
		Description:     "Build services.",
		SuggestedSkills: []string{"Go", "SQL"},
	}}, nil
}

func newTestBot(t *testing.T) (*Bot, *fakeSender, *store.Store, *fakeGenerator) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open("file:bot_" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	f, err := store.DefaultSeed()
	require.NoError(t, err)
	_, err = s.Import(t.Context(), f)
	require.NoError(t, err)

	sender := &fakeSender{}
	gen := &fakeGenerator{}
	return New(sender, Options{Backend: s, Generator: gen, KV: s}), sender, s, gen
}

var ada = &tgbotapi.User{ID: 42, FirstName: "Ada", LastName: "Lovelace"}

func command(text string) tgbotapi.Update {
	name, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 1},
		From:     ada,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func press(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    ada,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}},
		Data:    data,
	}}
}

func TestStart_ListsCategories(t *testing.T) {
	b, sender, _, _ := newTestBot(t)
	b.HandleUpdate(t.Context(), command("/start"))

	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0].Text, "Hi Ada Lovelace!")
	assert.Equal(t, []string{"cat:communication", "cat:data-analysis", "cat:programming"}, buttons(sender.sent[1]))
}

func TestUnknownCommand(t *testing.T) {
	b, sender, _, _ := newTestBot(t)
	b.HandleUpdate(t.Context(), command("/dance"))
	assert.Contains(t, sender.last(t).Text, "Unknown command")
}

func TestQuizFlow(t *testing.T) {
	b, sender, s, _ := newTestBot(t)
	ctx := t.Context()

	b.HandleUpdate(ctx, press("cat:programming"))
	first := sender.last(t)
	assert.Contains(t, first.Text, "question 1/5")
	assert.NotContains(t, strings.Join(buttons(first), ","), "prev:", "no back button on the first question")

	// Served order is prog-1, prog-3, prog-5, prog-2, prog-4; prog-2 is
	// answered wrong.
	for i, key := range []string{"B", "B", "B", "A", "A"} {
		msg := sender.last(t)
		if i > 0 {
			buttonWithPrefix(t, msg, "prev:")
		}
		b.HandleUpdate(ctx, press(answerButton(t, msg, key)))
	}

	done := sender.last(t)
	assert.Contains(t, done.Text, "Score: 4/5 (80%) - Excellent")
	assert.Contains(t, done.Text, "yours: A, correct: C")
	assert.NotContains(t, done.Text, "could not be saved")
	assert.Contains(t, buttons(done), "history:programming")
	assert.Equal(t, 6, sender.callbacks)

	attempts, err := s.FetchAttemptHistory(ctx, "tg:42", "programming")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 4, attempts[0].Score)

	b.HandleUpdate(ctx, press("history:programming"))
	assert.Contains(t, sender.last(t).Text, "Programming Fundamentals")
	assert.Contains(t, sender.last(t).Text, "4/5 (80%)")
}

func TestPrevious_ShowsEarlierAnswer(t *testing.T) {
	b, sender, _, _ := newTestBot(t)
	ctx := t.Context()

	b.HandleUpdate(ctx, press("cat:programming"))
	b.HandleUpdate(ctx, press(answerButton(t, sender.last(t), "D")))

	b.HandleUpdate(ctx, press(buttonWithPrefix(t, sender.last(t), "prev:")))
	msg := sender.last(t)
	assert.Contains(t, msg.Text, "question 1/5")
	assert.Contains(t, msg.Text, "Your answer: D")
}

func TestStaleButtonsIgnored(t *testing.T) {
	b, sender, s, _ := newTestBot(t)
	ctx := t.Context()

	b.HandleUpdate(ctx, press("cat:communication"))
	old := buttonWithPrefix(t, sender.last(t), "answer:")

	b.HandleUpdate(ctx, press("quit"))
	assert.Contains(t, sender.sent[len(sender.sent)-2].Text, "Quiz abandoned")

	b.HandleUpdate(ctx, press("cat:communication"))
	b.HandleUpdate(ctx, press(old))
	assert.Contains(t, sender.last(t).Text, "earlier quiz")

	attempts, err := s.RecentAttempts(ctx, "tg:42", 10)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestRecommendations(t *testing.T) {
	b, sender, s, gen := newTestBot(t)
	ctx := t.Context()

	b.HandleUpdate(ctx, command("/recommend"))
	assert.Contains(t, sender.last(t).Text, "Complete an assessment first")
	assert.Equal(t, 0, gen.calls)

	_, err := s.PersistAttempt(ctx, quiz.AttemptInput{UserID: "tg:42", CategoryID: "programming", Score: 2, TotalQuestions: 5, Answers: quiz.AnswerMap{}})
	require.NoError(t, err)

	b.HandleUpdate(ctx, press("rec:programming"))
	text := sender.last(t).Text
	assert.Contains(t, text, "1. Backend Developer")
	assert.Contains(t, text, "Skills to learn: Go, SQL")
	assert.NotContains(t, text, "(saved)")

	b.HandleUpdate(ctx, press("rec:programming"))
	assert.Contains(t, sender.last(t).Text, "(saved)")
	assert.Equal(t, 1, gen.calls)

	gen.err = errors.New("boom")
	b.HandleUpdate(ctx, command("/recommend"))
	assert.Contains(t, sender.last(t).Text, "couldn't generate")
}

func TestHistoryCommand_Empty(t *testing.T) {
	b, sender, _, _ := newTestBot(t)
	b.HandleUpdate(t.Context(), command("/history"))
	assert.Contains(t, sender.last(t).Text, "No attempts yet.")
}
