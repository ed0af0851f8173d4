package domain

import "testing"

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		percentage float64
		want       string
	}{
		{100, "A+"},
		{90, "A+"},
		{89.9, "A"},
		{80, "A"},
		{75, "B"},
		{70, "B"},
		{60, "C"},
		{50, "D"},
		{49.9, "F"},
		{0, "F"},
	}
	for _, c := range cases {
		if got := GradeFor(c.percentage); got != c.want {
			t.Fatalf("GradeFor(%v) = %q, want %q", c.percentage, got, c.want)
		}
	}

	attempt := QuizAttempt{Score: 75, TotalMarks: 100, Percentage: 75}
	if got := attempt.Grade(); got != "B" {
		t.Fatalf("expected grade B for 75%%, got %q", got)
	}
}

func TestMedals(t *testing.T) {
	cases := []struct {
		rank int
		want string
	}{
		{1, "\U0001F947"},
		{2, "\U0001F948"},
		{3, "\U0001F949"},
		{4, "4"},
		{10, "10"},
	}
	for _, c := range cases {
		entry := LeaderboardEntry{Rank: c.rank}
		if got := entry.Medal(); got != c.want {
			t.Fatalf("Medal() for rank %d = %q, want %q", c.rank, got, c.want)
		}
	}
}

func TestHashPassword(t *testing.T) {
	// fixed value pins the legacy scheme: 31-polynomial over UTF-16, hex
	if got := HashPassword("abc"); got != "17862" {
		t.Fatalf("HashPassword(abc) = %q, want 17862", got)
	}
	if HashPassword("secret") != HashPassword("secret") {
		t.Fatalf("hash must be deterministic")
	}
	if HashPassword("secret") == HashPassword("Secret") {
		t.Fatalf("different inputs should hash differently")
	}
}
