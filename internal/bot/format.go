package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/unisupport/unisupport/internal/history"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/session"
)

func categoryKeyboard(cats []quiz.Category) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Name, callbackCategory+c.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func currentQuestion(v session.View) (quiz.Question, bool) {
	if v.Quiz.Phase != quiz.PhaseInProgress || v.Quiz.Index >= len(v.Quiz.Questions) {
		return quiz.Question{}, false
	}
	return v.Quiz.Questions[v.Quiz.Index], true
}

func questionText(v session.View, q quiz.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: question %d/%d\n\n%s\n", v.Quiz.Category.Name, v.Quiz.Index+1, v.Quiz.Total, q.Text)
	for _, key := range q.OptionKeys() {
		fmt.Fprintf(&b, "\n%s. %s", key, q.Options[key])
	}
	if chosen, ok := v.Quiz.Answers[q.ID]; ok {
		fmt.Fprintf(&b, "\n\nYour answer: %s", chosen)
	}
	return b.String()
}

// questionKeyboard tags every button with the session so presses on an
// old quiz's messages can be recognised.
func questionKeyboard(v session.View, q quiz.Question) tgbotapi.InlineKeyboardMarkup {
	var options []tgbotapi.InlineKeyboardButton
	for _, key := range q.OptionKeys() {
		options = append(options, tgbotapi.NewInlineKeyboardButtonData(key, callbackAnswer+v.SessionID+":"+key))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if v.Quiz.Index > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Back", callbackPrevious+v.SessionID))
	}
	nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Quit", callbackQuit))

	return tgbotapi.NewInlineKeyboardMarkup(options, nav)
}

func bandLabel(b quiz.Band) string {
	switch b {
	case quiz.BandHigh:
		return "Excellent"
	case quiz.BandMid:
		return "Good"
	}
	return "Keep practising"
}

func completionText(comp *session.Completion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s complete!\nScore: %d/%d (%d%%) - %s\n",
		comp.Category.Name, comp.Input.Score, comp.Input.TotalQuestions, comp.Percentage, bandLabel(comp.Band))

	for i, item := range comp.Review {
		mark := "✗"
		if item.Correct {
			mark = "✓"
		}
		chosen := item.Chosen
		if !item.Answered {
			chosen = "-"
		}
		fmt.Fprintf(&b, "\n%s %d. %s\n   yours: %s, correct: %s", mark, i+1, item.Question.Text, chosen, item.Question.Correct)
		if !item.Correct && item.Question.Explanation != "" {
			fmt.Fprintf(&b, "\n   %s", item.Question.Explanation)
		}
	}
	return b.String()
}

func completionKeyboard(categoryID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Try again", callbackCategory+categoryID),
			tgbotapi.NewInlineKeyboardButtonData("History", callbackHistory+categoryID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Career suggestions", callbackRecommend+categoryID),
		),
	)
}

func historyText(title string, attempts []quiz.Attempt) string {
	if len(attempts) == 0 {
		return title + "\n\nNo attempts yet."
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for _, a := range attempts {
		name := a.CategoryName
		if name == "" {
			name = a.CategoryID
		}
		fmt.Fprintf(&b, "\n%s  %s  %d/%d (%d%%)", a.CreatedAt.Format("2006-01-02 15:04"), name, a.Score, a.TotalQuestions, a.Percentage())
	}
	return b.String()
}

func recommendationsText(res history.Result) string {
	var b strings.Builder
	b.WriteString("Career suggestions")
	if res.FromCache {
		b.WriteString(" (saved)")
	}
	b.WriteString("\n")
	for i, r := range res.Recommendations {
		fmt.Fprintf(&b, "\n%d. %s\n%s", i+1, r.Title, r.Description)
		if r.Reasoning != "" {
			fmt.Fprintf(&b, "\nWhy: %s", r.Reasoning)
		}
		if len(r.SuggestedSkills) > 0 {
			fmt.Fprintf(&b, "\nSkills to learn: %s", strings.Join(r.SuggestedSkills, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
