// Package history derives attempt-history snapshot keys and caches AI
// recommendations against them.
package history

import (
	"fmt"

	"github.com/unisupport/unisupport/internal/quiz"
)

// EmptySnapshotKey is the key of a category with no attempts.
const EmptySnapshotKey = "0:0"

// SnapshotKey identifies the state of an attempt history by its length and
// the newest creation time in unix milliseconds. Any appended attempt
// produces a different key. The slice need not be sorted.
func SnapshotKey(attempts []quiz.Attempt) string {
	if len(attempts) == 0 {
		return EmptySnapshotKey
	}
	newest := attempts[0].CreatedAt
	for _, a := range attempts[1:] {
		if a.CreatedAt.After(newest) {
			newest = a.CreatedAt
		}
	}
	return fmt.Sprintf("%d:%d", len(attempts), newest.UnixMilli())
}

// Latest returns the newest attempt.
func Latest(attempts []quiz.Attempt) (quiz.Attempt, bool) {
	if len(attempts) == 0 {
		return quiz.Attempt{}, false
	}
	latest := attempts[0]
	for _, a := range attempts[1:] {
		if a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	return latest, true
}
