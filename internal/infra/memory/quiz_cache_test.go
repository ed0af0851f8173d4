package memory

import (
	"context"
	"testing"
	"time"

	"quizdeck/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	creator := registerUser(t, store, "alice")
	quiz := sampleQuiz()
	id, err := store.SaveQuiz(ctx, quiz, creator)
	if err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	loader := &countingLoader{QuizLoader: store}
	cache := NewQuizCache(loader, time.Minute)

	if _, err := cache.LoadQuiz(ctx, id); err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := cache.LoadQuiz(ctx, id); err != nil {
		t.Fatalf("load quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	// invalidation forces a reload
	cache.Invalidate(ctx, id)
	if _, err := cache.LoadQuiz(ctx, id); err != nil {
		t.Fatalf("load quiz 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d", loader.calls)
	}
}

func TestQuizCachePropagatesNotFound(t *testing.T) {
	cache := NewQuizCache(NewStore(), time.Minute)
	if _, err := cache.LoadQuiz(context.Background(), 404); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}
