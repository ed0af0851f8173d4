package app

import (
	"context"
	"fmt"

	"quizdeck/internal/domain"
)

// Store is the persistence contract the service depends on. It is the sole
// owner of the relational schema; implementations live under internal/infra.
// All methods return typed errors (domain sentinels wrapped over driver
// errors) so callers can tell "no data" apart from "storage failed".
type Store interface {
	RegisterUser(ctx context.Context, username, password, email string) (int64, error)
	AuthenticateUser(ctx context.Context, username, password string) (domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	SaveQuiz(ctx context.Context, quiz *domain.Quiz, creatorID int64) (int64, error)
	AllQuizzes(ctx context.Context) ([]domain.Quiz, error)
	QuizzesByUser(ctx context.Context, userID int64) ([]domain.Quiz, error)
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID int64) error

	SaveAttempt(ctx context.Context, attempt *domain.QuizAttempt, answers []int, quiz domain.Quiz) (int64, error)
	AttemptsByUser(ctx context.Context, userID int64) ([]domain.QuizAttempt, error)
	BestAttempt(ctx context.Context, userID, quizID int64) (domain.QuizAttempt, error)
	QuizLeaderboard(ctx context.Context, quizID int64) ([]domain.LeaderboardEntry, error)
}

// QuizLoader loads full quizzes (with questions). The store satisfies it
// directly; the cache layers under internal/infra wrap it with a TTL.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizInvalidator is implemented by caching loaders that can drop an entry
// eagerly instead of waiting for its TTL.
type QuizInvalidator interface {
	Invalidate(ctx context.Context, quizID int64)
}

// QuizService contains the platform's use cases: accounts, quiz authoring,
// attempt submission and the derived read models (history, best attempt,
// leaderboard).
type QuizService struct {
	store   Store
	quizzes QuizLoader
}

func NewQuizService(store Store, quizzes QuizLoader) *QuizService {
	return &QuizService{store: store, quizzes: quizzes}
}

// Register creates a new account. The username must be unused.
func (s *QuizService) Register(ctx context.Context, username, password, email string) (int64, error) {
	return s.store.RegisterUser(ctx, username, password, email)
}

// Login authenticates a user. A wrong password surfaces as
// domain.ErrUserNotFound, same as an unknown username.
func (s *QuizService) Login(ctx context.Context, username, password string) (domain.User, error) {
	return s.store.AuthenticateUser(ctx, username, password)
}

// UsernameExists reports whether the username is already registered.
func (s *QuizService) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.store.UsernameExists(ctx, username)
}

// CreateQuiz validates question shape and persists the quiz with its
// questions in sequence order. Generated ids are assigned back onto quiz and
// its questions. A quiz whose question count does not divide the total marks
// evenly is still saved; detecting and warning about that is the caller's
// job via CanDistributeMarksEqually.
func (s *QuizService) CreateQuiz(ctx context.Context, quiz *domain.Quiz, creatorID int64) (int64, error) {
	if quiz.QuestionCount() == 0 {
		return 0, fmt.Errorf("%w: quiz has no questions", domain.ErrInvalidQuestion)
	}
	for i := range quiz.Questions {
		if err := quiz.Questions[i].Validate(); err != nil {
			return 0, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return s.store.SaveQuiz(ctx, quiz, creatorID)
}

// Quizzes lists all quizzes, most recently created first, without questions.
func (s *QuizService) Quizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.store.AllQuizzes(ctx)
}

// QuizzesByUser lists the quizzes a user created, most recent first,
// without questions.
func (s *QuizService) QuizzesByUser(ctx context.Context, userID int64) ([]domain.Quiz, error) {
	return s.store.QuizzesByUser(ctx, userID)
}

// Quiz loads a full quiz with its questions in display order, going through
// the quiz cache when one is configured.
func (s *QuizService) Quiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.quizzes.LoadQuiz(ctx, quizID)
}

// DeleteQuiz removes a quiz; its questions go with it via storage cascade.
// A caching loader gets its entry dropped eagerly.
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID int64) error {
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	if inv, ok := s.quizzes.(QuizInvalidator); ok {
		inv.Invalidate(ctx, quizID)
	}
	return nil
}

// SubmitAttempt grades an ordered answer slice (one entry per question,
// domain.Unanswered for skipped) against the quiz and records the attempt
// together with its per-question answer detail. The answer count must match
// the question count exactly.
func (s *QuizService) SubmitAttempt(ctx context.Context, userID, quizID int64, answers []int) (domain.QuizAttempt, error) {
	quiz, err := s.quizzes.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if len(answers) != quiz.QuestionCount() {
		return domain.QuizAttempt{}, fmt.Errorf("%w: got %d answers for %d questions",
			domain.ErrAnswerCountMismatch, len(answers), quiz.QuestionCount())
	}

	score := quiz.CalculateScore(answers)
	attempt := domain.QuizAttempt{
		UserID:     userID,
		QuizID:     quizID,
		QuizTitle:  quiz.Title,
		Score:      score,
		TotalMarks: domain.TotalMarks,
		Percentage: float64(score) / float64(domain.TotalMarks) * 100,
	}
	if _, err := s.store.SaveAttempt(ctx, &attempt, answers, quiz); err != nil {
		return domain.QuizAttempt{}, err
	}
	return attempt, nil
}

// History returns the user's attempts, most recent first, each denormalized
// with the quiz title as of query time.
func (s *QuizService) History(ctx context.Context, userID int64) ([]domain.QuizAttempt, error) {
	return s.store.AttemptsByUser(ctx, userID)
}

// BestAttempt returns the user's highest-scoring attempt on a quiz. Ties are
// broken by storage order, not by percentage or recency.
func (s *QuizService) BestAttempt(ctx context.Context, userID, quizID int64) (domain.QuizAttempt, error) {
	return s.store.BestAttempt(ctx, userID, quizID)
}

// Leaderboard returns the top ten users on a quiz by best score, then best
// percentage, with dense ranks starting at 1.
func (s *QuizService) Leaderboard(ctx context.Context, quizID int64) ([]domain.LeaderboardEntry, error) {
	return s.store.QuizLeaderboard(ctx, quizID)
}
