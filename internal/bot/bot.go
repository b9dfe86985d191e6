// Package bot runs the assessment as a Telegram bot with inline keyboards.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/history"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/session"
)

const (
	cmdStart     = "start"
	cmdQuiz      = "quiz"
	cmdHistory   = "history"
	cmdRecommend = "recommend"
	cmdHelp      = "help"

	callbackCategory  = "cat:"
	callbackAnswer    = "answer:"
	callbackPrevious  = "prev:"
	callbackQuit      = "quit"
	callbackHistory   = "history:"
	callbackRecommend = "rec:"
)

const helpText = `Commands:
/quiz - pick a category and start an assessment
/history - see your recent results
/recommend - get career suggestions from your results
/help - show this message`

// Sender is the part of *tgbotapi.BotAPI the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Backend is the storage the bot reads and writes.
type Backend interface {
	session.QuestionSource
	session.AttemptSink
	session.HistorySource

	ListCategories(ctx context.Context) ([]quiz.Category, error)
	GetCategory(ctx context.Context, id string) (quiz.Category, bool, error)
	RecentAttempts(ctx context.Context, userID string, limit int) ([]quiz.Attempt, error)
}

// Options wires the bot. Backend is required; without a Generator the
// recommendation command reports that it is unavailable.
type Options struct {
	Backend   Backend
	Generator history.Generator
	KV        history.KV
	Publisher session.Publisher
}

// Bot keeps one quiz controller per chat.
type Bot struct {
	api  Sender
	opts Options

	mu     sync.Mutex
	chats  map[int64]*session.Controller
	caches map[string]*history.Cache
}

// Connect authorises token with the Telegram API.
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = debug
	log.Printf("bot: authorised on account %s", api.Self.UserName)
	return api, nil
}

// New creates a bot sending through api.
func New(api Sender, opts Options) *Bot {
	return &Bot{
		api:    api,
		opts:   opts,
		chats:  make(map[int64]*session.Controller),
		caches: make(map[string]*history.Cache),
	}
}

// Run long-polls api for updates and handles them one at a time until ctx
// is cancelled.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := api.GetUpdatesChan(u)
	log.Println("bot: polling for updates")
	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func profileOf(u *tgbotapi.User) auth.Profile {
	if u == nil {
		return auth.Profile{}
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return auth.Profile{
		UserID:   "tg:" + strconv.FormatInt(u.ID, 10),
		FullName: name,
	}
}

// controller returns the chat's controller, creating it for from on first
// use.
func (b *Bot) controller(chatID int64, from *tgbotapi.User) *session.Controller {
	b.mu.Lock()
	defer b.mu.Unlock()
	ctrl, ok := b.chats[chatID]
	if !ok {
		ctrl = session.NewController(profileOf(from), session.Options{
			Questions: b.opts.Backend,
			Attempts:  b.opts.Backend,
			History:   b.opts.Backend,
			Publisher: b.opts.Publisher,
		})
		b.chats[chatID] = ctrl
	}
	return ctrl
}

func (b *Bot) cacheFor(userID string) *history.Cache {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.caches[userID]
	if !ok {
		c = history.NewCache(history.Prefixed(b.opts.KV, "user:"+userID+":"), b.opts.Generator)
		b.caches[userID] = c
	}
	return c
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	switch msg.Command() {
	case cmdStart:
		b.sendText(chatID, fmt.Sprintf("Hi %s! Test your skills and get career suggestions based on your results.\n\n%s",
			profileOf(msg.From).DisplayName(), helpText))
		b.sendCategories(ctx, chatID)
	case cmdQuiz:
		b.sendCategories(ctx, chatID)
	case cmdHistory:
		b.sendRecent(ctx, chatID, msg.From)
	case cmdRecommend:
		b.sendRecommendations(ctx, chatID, msg.From, "")
	case cmdHelp:
		b.sendText(chatID, helpText)
	default:
		b.sendText(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("bot: answer callback: %v", err)
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case strings.HasPrefix(data, callbackCategory):
		b.startQuiz(ctx, chatID, cb.From, strings.TrimPrefix(data, callbackCategory))
	case strings.HasPrefix(data, callbackAnswer):
		tag, key, ok := strings.Cut(strings.TrimPrefix(data, callbackAnswer), ":")
		if !ok {
			return
		}
		b.answer(ctx, chatID, cb.From, tag, key)
	case strings.HasPrefix(data, callbackPrevious):
		b.previous(chatID, cb.From, strings.TrimPrefix(data, callbackPrevious))
	case data == callbackQuit:
		b.controller(chatID, cb.From).Restart()
		b.sendText(chatID, "Quiz abandoned. Nothing was saved.")
		b.sendCategories(ctx, chatID)
	case strings.HasPrefix(data, callbackHistory):
		b.sendCategoryHistory(ctx, chatID, cb.From, strings.TrimPrefix(data, callbackHistory))
	case strings.HasPrefix(data, callbackRecommend):
		b.sendRecommendations(ctx, chatID, cb.From, strings.TrimPrefix(data, callbackRecommend))
	default:
		b.sendText(chatID, "Unknown action.")
	}
}

func (b *Bot) startQuiz(ctx context.Context, chatID int64, from *tgbotapi.User, categoryID string) {
	category, ok, err := b.opts.Backend.GetCategory(ctx, categoryID)
	if err != nil {
		log.Printf("bot: get category %s: %v", categoryID, err)
		b.sendText(chatID, "Something went wrong loading that category. Please try again.")
		return
	}
	if !ok {
		b.sendText(chatID, "That category no longer exists.")
		b.sendCategories(ctx, chatID)
		return
	}

	ctrl := b.controller(chatID, from)
	if _, err := ctrl.Begin(ctx, category); err != nil {
		if errors.Is(err, session.ErrNoQuestionsAvailable) {
			b.sendText(chatID, fmt.Sprintf("%s has no questions yet. Pick another category.", category.Name))
			return
		}
		log.Printf("bot: begin %s: %v", categoryID, err)
		b.sendText(chatID, "Could not start the quiz. Please try again.")
		return
	}
	b.sendQuestion(chatID, ctrl.Snapshot())
}

func (b *Bot) answer(ctx context.Context, chatID int64, from *tgbotapi.User, tag, key string) {
	ctrl := b.controller(chatID, from)
	if ctrl.SessionID() != tag {
		b.sendText(chatID, "That question belongs to an earlier quiz.")
		return
	}
	if err := ctrl.SelectCurrent(key); err != nil {
		b.sendText(chatID, "This quiz is no longer active. Use /quiz to start a new one.")
		return
	}

	comp, err := ctrl.Finish(ctx)
	switch {
	case comp == nil && err == nil:
		b.sendQuestion(chatID, ctrl.Snapshot())
	case comp != nil:
		b.sendCompletion(chatID, comp, err)
	default:
		log.Printf("bot: advance quiz: %v", err)
		b.sendText(chatID, "Could not move to the next question.")
	}
}

func (b *Bot) previous(chatID int64, from *tgbotapi.User, tag string) {
	ctrl := b.controller(chatID, from)
	if ctrl.SessionID() != tag {
		b.sendText(chatID, "That question belongs to an earlier quiz.")
		return
	}
	if err := ctrl.Previous(); err != nil {
		return
	}
	b.sendQuestion(chatID, ctrl.Snapshot())
}

func (b *Bot) sendCategories(ctx context.Context, chatID int64) {
	cats, err := b.opts.Backend.ListCategories(ctx)
	if err != nil {
		log.Printf("bot: list categories: %v", err)
		b.sendText(chatID, "Could not load categories right now.")
		return
	}
	if len(cats) == 0 {
		b.sendText(chatID, "No assessments are available yet.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Choose an assessment:")
	msg.ReplyMarkup = categoryKeyboard(cats)
	b.send(msg)
}

func (b *Bot) sendQuestion(chatID int64, v session.View) {
	q, ok := currentQuestion(v)
	if !ok {
		return
	}
	msg := tgbotapi.NewMessage(chatID, questionText(v, q))
	msg.ReplyMarkup = questionKeyboard(v, q)
	b.send(msg)
}

func (b *Bot) sendCompletion(chatID int64, comp *session.Completion, err error) {
	text := completionText(comp)
	if errors.Is(err, session.ErrPersistence) {
		text += "\n\nWarning: your result could not be saved."
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = completionKeyboard(comp.Category.ID)
	b.send(msg)
}

func (b *Bot) sendCategoryHistory(ctx context.Context, chatID int64, from *tgbotapi.User, categoryID string) {
	attempts, err := b.controller(chatID, from).LoadCategoryHistory(ctx, categoryID)
	if err != nil {
		log.Printf("bot: %v", err)
	}
	title := categoryID
	if cat, ok, _ := b.opts.Backend.GetCategory(ctx, categoryID); ok {
		title = cat.Name
	}
	b.sendText(chatID, historyText(title, attempts))
}

func (b *Bot) sendRecent(ctx context.Context, chatID int64, from *tgbotapi.User) {
	attempts, err := b.opts.Backend.RecentAttempts(ctx, profileOf(from).UserID, 5)
	if err != nil {
		log.Printf("bot: recent attempts: %v", err)
		attempts = nil
	}
	b.sendText(chatID, historyText("Recent results", attempts))
}

func (b *Bot) sendRecommendations(ctx context.Context, chatID int64, from *tgbotapi.User, categoryID string) {
	if b.opts.Generator == nil || b.opts.KV == nil {
		b.sendText(chatID, "Recommendations are not available right now.")
		return
	}
	profile := profileOf(from)

	var (
		attempts []quiz.Attempt
		err      error
	)
	if categoryID != "" {
		attempts, err = b.opts.Backend.FetchAttemptHistory(ctx, profile.UserID, categoryID)
	} else {
		attempts, err = b.opts.Backend.RecentAttempts(ctx, profile.UserID, 20)
	}
	if err != nil {
		log.Printf("bot: history for recommendations: %v", err)
		b.sendText(chatID, "Could not load your results right now.")
		return
	}
	if len(attempts) == 0 {
		b.sendText(chatID, "Complete an assessment first, then ask again.")
		return
	}

	b.sendText(chatID, "Thinking about your results...")
	res, err := b.cacheFor(profile.UserID).Load(ctx, profile, categoryID, attempts)
	if err != nil {
		log.Printf("bot: %v", err)
		b.sendText(chatID, "Sorry, I couldn't generate recommendations. Please try again later.")
		return
	}
	b.sendText(chatID, recommendationsText(res))
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: send to %d: %v", msg.ChatID, err)
	}
}
