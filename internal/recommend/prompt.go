package recommend

import (
	"fmt"
	"strings"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/quiz"
)

const systemPrompt = `You are a university career advisor. You suggest realistic career paths to a student based on their profile and their skills-assessment results.`

func buildUserMessage(profile auth.Profile, attempts []quiz.Attempt, cfg Config) string {
	var b strings.Builder

	b.WriteString("Student Profile:\n")
	if profile.Major != "" {
		fmt.Fprintf(&b, "Major: %s\n", profile.Major)
	}
	if profile.YearOfStudy > 0 {
		fmt.Fprintf(&b, "Year of study: %d\n", profile.YearOfStudy)
	}
	writeList(&b, "Interests", profile.Interests)
	writeList(&b, "Skills", profile.Skills)
	writeList(&b, "Career preferences", profile.CareerPreferences)

	b.WriteString("\nAssessment Results (newest first):\n")
	if len(attempts) == 0 {
		b.WriteString("None\n")
	}
	for i, a := range attempts {
		if cfg.MaxAttempts > 0 && i >= cfg.MaxAttempts {
			break
		}
		name := a.CategoryName
		if name == "" {
			name = a.CategoryID
		}
		fmt.Fprintf(&b, "- %s: %d/%d (%d%%) on %s\n",
			name, a.Score, a.TotalQuestions, a.Percentage(), a.CreatedAt.UTC().Format("2006-01-02"))
	}

	fmt.Fprintf(&b, `
Instructions:
Suggest %d career paths for this student.
1. Prefer paths that build on categories where the student scored well.
2. For each path, explain in the reasoning which results or profile details support it.
3. List 2-5 suggested skills to learn, focused on gaps shown by lower scores.
4. Keep descriptions short and concrete. Do not invent profile details.`, cfg.Count)

	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, ", "))
}
