package postgres

import (
	"context"
	"errors"
	"fmt"

	"quizdeck/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

// Store is the Postgres-backed persistence layer. It owns all SQL against
// the quiz schema; nothing else in the codebase opens a connection. The pool
// is created once at startup and injected here.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// RegisterUser inserts a new account, hashing the password before storage.
// A duplicate username surfaces as domain.ErrUsernameTaken.
func (s *Store) RegisterUser(ctx context.Context, username, password, email string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, email) VALUES ($1, $2, $3) RETURNING id`,
		username, domain.HashPassword(password), email).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, domain.ErrUsernameTaken
		}
		return 0, fmt.Errorf("register user: %w", err)
	}
	return id, nil
}

// AuthenticateUser matches the stored hash against a hash of the supplied
// password. Unknown usernames and wrong passwords both come back as
// domain.ErrUserNotFound.
func (s *Store) AuthenticateUser(ctx context.Context, username, password string) (domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email FROM users WHERE username = $1 AND password = $2`,
		username, domain.HashPassword(password)).Scan(&user.ID, &user.Username, &user.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("authenticate user: %w", err)
	}
	return user, nil
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("username exists: %w", err)
	}
	return count > 0, nil
}

// SaveQuiz inserts the quiz row and all its questions in sequence order
// inside one transaction; the sequence index becomes the persisted display
// order. Generated ids are written back onto the quiz and its questions.
func (s *Store) SaveQuiz(ctx context.Context, quiz *domain.Quiz, creatorID int64) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("save quiz: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO quizzes (title, description, creator_id, total_marks)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		quiz.Title, quiz.Description, creatorID, domain.TotalMarks).
		Scan(&quiz.ID, &quiz.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("save quiz: %w", err)
	}

	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (quiz_id, question_text, choice1, choice2, choice3, choice4,
			                        correct_answer_index, marks, question_order)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			quiz.ID, q.Text, q.Choices[0], q.Choices[1], q.Choices[2], q.Choices[3],
			q.CorrectAnswerIndex, q.Marks, i).Scan(&q.ID)
		if err != nil {
			return 0, fmt.Errorf("save question %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("save quiz: commit: %w", err)
	}
	return quiz.ID, nil
}

// AllQuizzes returns summary rows (no questions) for every quiz, most
// recently created first, with the creator's username resolved via a left
// join. A deleted creator leaves CreatorName empty; consumers render that
// however they like ("Unknown" in the shell).
func (s *Store) AllQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT q.id, q.title, q.description, u.username, q.created_at
		 FROM quizzes q
		 LEFT JOIN users u ON q.creator_id = u.id
		 ORDER BY q.created_at DESC, q.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var quiz domain.Quiz
		var creator *string
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &creator, &quiz.CreatedAt); err != nil {
			return nil, fmt.Errorf("list quizzes: scan: %w", err)
		}
		if creator != nil {
			quiz.CreatorName = *creator
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// QuizzesByUser returns summary rows for quizzes created by one user, most
// recent first.
func (s *Store) QuizzesByUser(ctx context.Context, userID int64) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, created_at
		 FROM quizzes WHERE creator_id = $1
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var quiz domain.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.CreatedAt); err != nil {
			return nil, fmt.Errorf("list user quizzes: scan: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user quizzes: %w", err)
	}
	return quizzes, nil
}

// LoadQuiz reconstructs a full quiz; question order comes from the stored
// question_order key, not from ids.
func (s *Store) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	var creator *string
	err := s.pool.QueryRow(ctx,
		`SELECT q.id, q.title, q.description, u.username, q.created_at
		 FROM quizzes q
		 LEFT JOIN users u ON q.creator_id = u.id
		 WHERE q.id = $1`, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.Description, &creator, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if creator != nil {
		quiz.CreatorName = *creator
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, question_text, choice1, choice2, choice3, choice4, correct_answer_index, marks
		 FROM questions WHERE quiz_id = $1
		 ORDER BY question_order`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Choices[0], &q.Choices[1], &q.Choices[2], &q.Choices[3],
			&q.CorrectAnswerIndex, &q.Marks); err != nil {
			return domain.Quiz{}, fmt.Errorf("load questions: scan: %w", err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}

// DeleteQuiz removes the quiz row; questions, attempts and answer detail go
// with it through the schema's cascades. Deleting an unknown id is a no-op.
func (s *Store) DeleteQuiz(ctx context.Context, quizID int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

// SaveAttempt records the attempt row plus one answer-detail row per
// question in one transaction. The quiz must have been loaded through the
// store so its questions carry persisted ids; answers are matched to
// questions positionally.
func (s *Store) SaveAttempt(ctx context.Context, attempt *domain.QuizAttempt, answers []int, quiz domain.Quiz) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("save attempt: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO quiz_attempts (user_id, quiz_id, score, total_marks, percentage)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, completed_at`,
		attempt.UserID, attempt.QuizID, attempt.Score, attempt.TotalMarks, attempt.Percentage).
		Scan(&attempt.ID, &attempt.CompletedAt)
	if err != nil {
		return 0, fmt.Errorf("save attempt: %w", err)
	}

	for i, q := range quiz.Questions {
		_, err = tx.Exec(ctx,
			`INSERT INTO user_answers (attempt_id, question_id, selected_answer_index, is_correct)
			 VALUES ($1, $2, $3, $4)`,
			attempt.ID, q.ID, answers[i], q.IsCorrect(answers[i]))
		if err != nil {
			return 0, fmt.Errorf("save answer %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("save attempt: commit: %w", err)
	}
	return attempt.ID, nil
}

// AttemptsByUser returns the user's attempts, most recent first, each
// carrying the quiz title as of query time.
func (s *Store) AttemptsByUser(ctx context.Context, userID int64) ([]domain.QuizAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT qa.id, qa.user_id, qa.quiz_id, q.title, qa.score, qa.total_marks, qa.percentage, qa.completed_at
		 FROM quiz_attempts qa
		 JOIN quizzes q ON qa.quiz_id = q.id
		 WHERE qa.user_id = $1
		 ORDER BY qa.completed_at DESC, qa.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.QuizAttempt
	for rows.Next() {
		var a domain.QuizAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.QuizTitle, &a.Score, &a.TotalMarks,
			&a.Percentage, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("list attempts: scan: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

// BestAttempt returns the user's highest-scoring attempt on the quiz. Ties
// are deliberately left to storage order; there is no secondary sort key.
func (s *Store) BestAttempt(ctx context.Context, userID, quizID int64) (domain.QuizAttempt, error) {
	var a domain.QuizAttempt
	err := s.pool.QueryRow(ctx,
		`SELECT qa.id, qa.user_id, qa.quiz_id, q.title, qa.score, qa.total_marks, qa.percentage, qa.completed_at
		 FROM quiz_attempts qa
		 JOIN quizzes q ON qa.quiz_id = q.id
		 WHERE qa.user_id = $1 AND qa.quiz_id = $2
		 ORDER BY qa.score DESC LIMIT 1`, userID, quizID).
		Scan(&a.ID, &a.UserID, &a.QuizID, &a.QuizTitle, &a.Score, &a.TotalMarks, &a.Percentage, &a.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("best attempt: %w", err)
	}
	return a, nil
}

// QuizLeaderboard groups attempts by user and takes each user's maximum
// score and maximum percentage as independent aggregates (they may come from
// different attempts), ordered by best score then best percentage, top ten.
// Rank is assigned while scanning, starting at 1.
func (s *Store) QuizLeaderboard(ctx context.Context, quizID int64) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.username, MAX(qa.score) AS best_score, MAX(qa.percentage) AS best_percentage
		 FROM quiz_attempts qa
		 JOIN users u ON qa.user_id = u.id
		 WHERE qa.quiz_id = $1
		 GROUP BY qa.user_id, u.username
		 ORDER BY best_score DESC, best_percentage DESC
		 LIMIT 10`, quizID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	rank := 1
	for rows.Next() {
		entry := domain.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&entry.Username, &entry.BestScore, &entry.BestPercentage); err != nil {
			return nil, fmt.Errorf("leaderboard: scan: %w", err)
		}
		entries = append(entries, entry)
		rank++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return entries, nil
}
