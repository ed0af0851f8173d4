package domain

import (
	"strconv"
	"time"
	"unicode/utf16"
)

// User is a registered account. The password hash never leaves the storage
// layer; only identity fields are populated on load.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// QuizAttempt is an immutable record of one finished run through a quiz.
// Percentage is computed by the caller before persistence; the grade is
// derived on demand and never stored.
type QuizAttempt struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	QuizID      int64     `json:"quizId"`
	QuizTitle   string    `json:"quizTitle"`
	Score       int       `json:"score"`
	TotalMarks  int       `json:"totalMarks"`
	Percentage  float64   `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
}

// Grade maps the attempt's percentage to a letter grade.
func (a QuizAttempt) Grade() string {
	return GradeFor(a.Percentage)
}

// GradeFor converts a percentage to a letter grade. Boundaries are inclusive
// at the lower edge.
func GradeFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}

// LeaderboardEntry is a derived ranking row for one user on one quiz.
// BestScore and BestPercentage are independent per-user maxima over all of
// that user's attempts; they need not come from the same attempt.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	Username       string  `json:"username"`
	BestScore      int     `json:"bestScore"`
	BestPercentage float64 `json:"bestPercentage"`
}

// Medal renders the rank as a medal for the top three places and as the
// plain rank number below that.
func (e LeaderboardEntry) Medal() string {
	switch e.Rank {
	case 1:
		return "\U0001F947"
	case 2:
		return "\U0001F948"
	case 3:
		return "\U0001F949"
	default:
		return strconv.Itoa(e.Rank)
	}
}

// HashPassword applies the legacy 32-bit string-hash scheme carried over from
// the first version of the platform. It is not suitable for real credential
// storage; swap for a salted adaptive hash before exposing this beyond a
// trusted deployment.
func HashPassword(password string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(password)) {
		h = 31*h + int32(u)
	}
	return strconv.FormatUint(uint64(uint32(h)), 16)
}
