package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
	"quizdeck/internal/infra/memory"
)

func newTestService(t *testing.T) (*app.QuizService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	cache := memory.NewQuizCache(store, 5*time.Minute)
	return app.NewQuizService(store, cache), store
}

func sampleQuiz() *domain.Quiz {
	quiz := &domain.Quiz{Title: "Geography", Description: "Capitals"}
	prompts := []string{"Capital of France?", "Capital of Italy?", "Capital of Spain?", "Capital of Peru?"}
	for i, p := range prompts {
		quiz.AddQuestion(domain.Question{
			Text:               p,
			Choices:            [4]string{"Paris", "Rome", "Madrid", "Lima"},
			CorrectAnswerIndex: i,
		})
	}
	return quiz
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	id, err := service.Register(ctx, "alice", "hunter2", "alice@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := service.Login(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != id || user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := service.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	exists, err := service.UsernameExists(ctx, "alice")
	if err != nil || !exists {
		t.Fatalf("expected alice taken, got %v %v", exists, err)
	}
}

func TestCreateQuizValidatesQuestions(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	empty := &domain.Quiz{Title: "Empty"}
	if _, err := service.CreateQuiz(ctx, empty, 1); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion for empty quiz, got %v", err)
	}

	bad := &domain.Quiz{Title: "Bad"}
	bad.AddQuestion(domain.Question{
		Text:               "Pick one",
		Choices:            [4]string{"a", "b", "c", "d"},
		CorrectAnswerIndex: 7,
	})
	if _, err := service.CreateQuiz(ctx, bad, 1); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion for bad index, got %v", err)
	}
}

func TestSubmitAttemptScoresAndRecords(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	creator, err := service.Register(ctx, "alice", "pw", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	quiz := sampleQuiz()
	quizID, err := service.CreateQuiz(ctx, quiz, creator)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	// correct, correct, wrong, correct on 4 questions at 25 marks each
	attempt, err := service.SubmitAttempt(ctx, creator, quizID, []int{0, 1, 3, 3})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if attempt.Score != 75 || attempt.TotalMarks != 100 {
		t.Fatalf("expected 75/100, got %d/%d", attempt.Score, attempt.TotalMarks)
	}
	if attempt.Percentage != 75.0 {
		t.Fatalf("expected 75.0%%, got %v", attempt.Percentage)
	}
	if got := attempt.Grade(); got != "B" {
		t.Fatalf("expected grade B, got %q", got)
	}
	if attempt.ID == 0 || attempt.QuizTitle != "Geography" {
		t.Fatalf("expected persisted attempt with title, got %+v", attempt)
	}

	history, err := service.History(ctx, creator)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != attempt.ID {
		t.Fatalf("expected the attempt in history, got %+v", history)
	}
}

func TestSubmitAttemptRejectsWrongAnswerCount(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	creator, err := service.Register(ctx, "alice", "pw", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	quizID, err := service.CreateQuiz(ctx, sampleQuiz(), creator)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	if _, err := service.SubmitAttempt(ctx, creator, quizID, []int{0, 1}); !errors.Is(err, domain.ErrAnswerCountMismatch) {
		t.Fatalf("expected ErrAnswerCountMismatch, got %v", err)
	}
	if _, err := service.SubmitAttempt(ctx, creator, 9999, []int{0}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestLeaderboardScenario(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	alice, err := service.Register(ctx, "alice", "pw", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	bob, err := service.Register(ctx, "bob", "pw", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	quizID, err := service.CreateQuiz(ctx, sampleQuiz(), alice)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	// alice improves 75 -> 100 across two attempts; bob scores 75 once
	if _, err := service.SubmitAttempt(ctx, alice, quizID, []int{0, 1, 3, 3}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.SubmitAttempt(ctx, alice, quizID, []int{0, 1, 2, 3}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.SubmitAttempt(ctx, bob, quizID, []int{0, 1, 3, 3}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entries, err := service.Leaderboard(ctx, quizID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Username != "alice" || entries[0].BestScore != 100 || entries[0].Rank != 1 {
		t.Fatalf("expected alice leading with 100, got %+v", entries[0])
	}
	if entries[1].Username != "bob" || entries[1].BestScore != 75 || entries[1].Rank != 2 {
		t.Fatalf("expected bob second with 75, got %+v", entries[1])
	}

	best, err := service.BestAttempt(ctx, alice, quizID)
	if err != nil {
		t.Fatalf("best: %v", err)
	}
	if best.Score != 100 {
		t.Fatalf("expected best 100, got %d", best.Score)
	}
}

func TestDeleteQuizInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	creator, err := service.Register(ctx, "alice", "pw", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	quizID, err := service.CreateQuiz(ctx, sampleQuiz(), creator)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	// warm the cache, then delete underneath it
	if _, err := service.Quiz(ctx, quizID); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := service.DeleteQuiz(ctx, quizID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.Quiz(ctx, quizID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound after delete, got %v", err)
	}
	if _, err := store.LoadQuiz(ctx, quizID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz gone from store, got %v", err)
	}
}
