package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizdeck/internal/domain"
)

// Store is an in-memory implementation of the persistence contract. It backs
// unit tests and the no-database demo mode, and mirrors the relational
// store's semantics: insertion-order ids, cascade deletes, most-recent-first
// listings and the leaderboard's independent per-user maxima.
type Store struct {
	mu    sync.RWMutex
	clock func() time.Time

	nextUserID     int64
	nextQuizID     int64
	nextQuestionID int64
	nextAttemptID  int64

	users    map[int64]*userRow
	byName   map[string]int64
	quizzes  map[int64]*quizRow
	attempts []*attemptRow
	answers  []answerRow
}

type userRow struct {
	id           int64
	username     string
	passwordHash string
	email        string
	createdAt    time.Time
}

type quizRow struct {
	id          int64
	title       string
	description string
	creatorID   int64
	createdAt   time.Time
	questions   []domain.Question
}

type attemptRow struct {
	id          int64
	userID      int64
	quizID      int64
	score       int
	totalMarks  int
	percentage  float64
	completedAt time.Time
}

type answerRow struct {
	attemptID  int64
	questionID int64
	selected   int
	correct    bool
}

func NewStore() *Store {
	return &Store{
		clock:   time.Now,
		users:   make(map[int64]*userRow),
		byName:  make(map[string]int64),
		quizzes: make(map[int64]*quizRow),
	}
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.clock = now
	return s
}

func (s *Store) RegisterUser(_ context.Context, username, password, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[username]; taken {
		return 0, domain.ErrUsernameTaken
	}
	s.nextUserID++
	row := &userRow{
		id:           s.nextUserID,
		username:     username,
		passwordHash: domain.HashPassword(password),
		email:        email,
		createdAt:    s.clock(),
	}
	s.users[row.id] = row
	s.byName[username] = row.id
	return row.id, nil
}

func (s *Store) AuthenticateUser(_ context.Context, username, password string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	row := s.users[id]
	if row.passwordHash != domain.HashPassword(password) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return domain.User{ID: row.id, Username: row.username, Email: row.email}, nil
}

func (s *Store) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byName[username]
	return ok, nil
}

// SaveQuiz assigns the quiz id and per-question ids in sequence order and
// writes generated ids back onto the passed-in quiz.
func (s *Store) SaveQuiz(_ context.Context, quiz *domain.Quiz, creatorID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextQuizID++
	row := &quizRow{
		id:          s.nextQuizID,
		title:       quiz.Title,
		description: quiz.Description,
		creatorID:   creatorID,
		createdAt:   s.clock(),
	}
	for i := range quiz.Questions {
		s.nextQuestionID++
		quiz.Questions[i].ID = s.nextQuestionID
	}
	row.questions = append([]domain.Question(nil), quiz.Questions...)
	s.quizzes[row.id] = row

	quiz.ID = row.id
	quiz.CreatedAt = row.createdAt
	return row.id, nil
}

func (s *Store) AllQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, row := range s.quizzes {
		out = append(out, s.summaryLocked(row, true))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) QuizzesByUser(_ context.Context, userID int64) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Quiz
	for _, row := range s.quizzes {
		if row.creatorID == userID {
			out = append(out, s.summaryLocked(row, false))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) LoadQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz := s.summaryLocked(row, true)
	quiz.Questions = append([]domain.Question(nil), row.questions...)
	return quiz, nil
}

// DeleteQuiz removes the quiz and, mirroring the relational cascade, its
// questions, attempts and answer detail. Deleting an unknown id is a no-op.
func (s *Store) DeleteQuiz(_ context.Context, quizID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.quizzes, quizID)

	kept := s.attempts[:0]
	removed := make(map[int64]bool)
	for _, at := range s.attempts {
		if at.quizID == quizID {
			removed[at.id] = true
			continue
		}
		kept = append(kept, at)
	}
	s.attempts = kept

	keptAnswers := s.answers[:0]
	for _, an := range s.answers {
		if !removed[an.attemptID] {
			keptAnswers = append(keptAnswers, an)
		}
	}
	s.answers = keptAnswers
	return nil
}

// SaveAttempt records the attempt and one answer-detail row per question.
// The quiz must carry persisted question ids; answers and quiz.Questions are
// matched positionally.
func (s *Store) SaveAttempt(_ context.Context, attempt *domain.QuizAttempt, answers []int, quiz domain.Quiz) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quizzes[attempt.QuizID]; !ok {
		return 0, domain.ErrQuizNotFound
	}

	s.nextAttemptID++
	row := &attemptRow{
		id:          s.nextAttemptID,
		userID:      attempt.UserID,
		quizID:      attempt.QuizID,
		score:       attempt.Score,
		totalMarks:  attempt.TotalMarks,
		percentage:  attempt.Percentage,
		completedAt: s.clock(),
	}
	s.attempts = append(s.attempts, row)

	for i, q := range quiz.Questions {
		s.answers = append(s.answers, answerRow{
			attemptID:  row.id,
			questionID: q.ID,
			selected:   answers[i],
			correct:    q.IsCorrect(answers[i]),
		})
	}

	attempt.ID = row.id
	attempt.CompletedAt = row.completedAt
	return row.id, nil
}

func (s *Store) AttemptsByUser(_ context.Context, userID int64) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.QuizAttempt
	for _, row := range s.attempts {
		if row.userID != userID {
			continue
		}
		quiz, ok := s.quizzes[row.quizID]
		if !ok {
			continue
		}
		out = append(out, s.attemptLocked(row, quiz.title))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// BestAttempt returns the highest-scoring attempt; among equal scores the
// earliest-stored one wins, matching the relational store's tie behavior.
func (s *Store) BestAttempt(_ context.Context, userID, quizID int64) (domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *attemptRow
	for _, row := range s.attempts {
		if row.userID != userID || row.quizID != quizID {
			continue
		}
		if best == nil || row.score > best.score {
			best = row
		}
	}
	if best == nil {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	title := ""
	if quiz, ok := s.quizzes[quizID]; ok {
		title = quiz.title
	}
	return s.attemptLocked(best, title), nil
}

// QuizLeaderboard aggregates each user's attempts on the quiz down to their
// maximum score and, independently, maximum percentage, then ranks by best
// score descending and best percentage descending, top ten.
func (s *Store) QuizLeaderboard(_ context.Context, quizID int64) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		userID  int64
		score   int
		percent float64
	}
	var order []int64
	byUser := make(map[int64]*agg)
	for _, row := range s.attempts {
		if row.quizID != quizID {
			continue
		}
		a, ok := byUser[row.userID]
		if !ok {
			a = &agg{userID: row.userID, score: row.score, percent: row.percentage}
			byUser[row.userID] = a
			order = append(order, row.userID)
			continue
		}
		if row.score > a.score {
			a.score = row.score
		}
		if row.percentage > a.percent {
			a.percent = row.percentage
		}
	}

	aggs := make([]*agg, 0, len(order))
	for _, id := range order {
		aggs = append(aggs, byUser[id])
	}
	sort.SliceStable(aggs, func(i, j int) bool {
		if aggs[i].score != aggs[j].score {
			return aggs[i].score > aggs[j].score
		}
		return aggs[i].percent > aggs[j].percent
	})
	if len(aggs) > 10 {
		aggs = aggs[:10]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(aggs))
	for i, a := range aggs {
		username := ""
		if u, ok := s.users[a.userID]; ok {
			username = u.username
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:           i + 1,
			Username:       username,
			BestScore:      a.score,
			BestPercentage: a.percent,
		})
	}
	return entries, nil
}

func (s *Store) summaryLocked(row *quizRow, withCreator bool) domain.Quiz {
	quiz := domain.Quiz{
		ID:          row.id,
		Title:       row.title,
		Description: row.description,
		CreatedAt:   row.createdAt,
	}
	if withCreator {
		if u, ok := s.users[row.creatorID]; ok {
			quiz.CreatorName = u.username
		}
	}
	return quiz
}

func (s *Store) attemptLocked(row *attemptRow, title string) domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:          row.id,
		UserID:      row.userID,
		QuizID:      row.quizID,
		QuizTitle:   title,
		Score:       row.score,
		TotalMarks:  row.totalMarks,
		Percentage:  row.percentage,
		CompletedAt: row.completedAt,
	}
}

func sortNewestFirst(quizzes []domain.Quiz) {
	sort.SliceStable(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID > quizzes[j].ID
	})
}
