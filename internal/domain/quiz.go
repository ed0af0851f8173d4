package domain

import (
	"fmt"
	"time"
)

// TotalMarks is the fixed grading scale every quiz is scored out of. It is a
// platform-wide constant, not a per-quiz setting.
const TotalMarks = 100

// NumChoices is the number of answer choices every question carries.
const NumChoices = 4

// Unanswered marks a question the user skipped.
const Unanswered = -1

// Question is a single multiple-choice question with exactly four choices.
// ID is zero until the question is persisted.
type Question struct {
	ID                 int64              `json:"id"`
	Text               string             `json:"text"`
	Choices            [NumChoices]string `json:"choices"`
	CorrectAnswerIndex int                `json:"correctAnswerIndex"`
	Marks              int                `json:"marks"`
}

// IsCorrect reports whether the selected choice index is the correct one.
func (q Question) IsCorrect(selectedIndex int) bool {
	return selectedIndex == q.CorrectAnswerIndex
}

// CorrectAnswer returns the text of the correct choice.
func (q Question) CorrectAnswer() string {
	return q.Choices[q.CorrectAnswerIndex]
}

// Validate checks structural shape only: a non-empty prompt, four non-empty
// choices and an in-range correct index.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty question text", ErrInvalidQuestion)
	}
	for i, choice := range q.Choices {
		if choice == "" {
			return fmt.Errorf("%w: empty choice %d", ErrInvalidQuestion, i+1)
		}
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= NumChoices {
		return fmt.Errorf("%w: correct answer index %d out of range", ErrInvalidQuestion, q.CorrectAnswerIndex)
	}
	return nil
}

// Quiz is an ordered collection of questions graded out of TotalMarks.
// ID is zero until the quiz is persisted; question ids are assigned in the
// same save, in sequence order.
type Quiz struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatorName string     `json:"creatorName,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Questions   []Question `json:"questions,omitempty"`
}

// Saved reports whether the quiz has been assigned a storage id.
func (z *Quiz) Saved() bool {
	return z.ID > 0
}

// AddQuestion appends a question and redistributes marks.
func (z *Quiz) AddQuestion(q Question) {
	z.Questions = append(z.Questions, q)
	z.updateMarks()
}

// RemoveQuestion deletes the question at index and redistributes marks.
// Out-of-range indexes are ignored.
func (z *Quiz) RemoveQuestion(index int) {
	if index < 0 || index >= len(z.Questions) {
		return
	}
	z.Questions = append(z.Questions[:index], z.Questions[index+1:]...)
	z.updateMarks()
}

// updateMarks reassigns every question's marks when the fixed total divides
// evenly across the current question count. When it does not, existing marks
// are left untouched; callers detect that via CanDistributeMarksEqually.
func (z *Quiz) updateMarks() {
	if len(z.Questions) == 0 || !z.CanDistributeMarksEqually() {
		return
	}
	per := z.MarksPerQuestion()
	for i := range z.Questions {
		z.Questions[i].Marks = per
	}
}

// QuestionCount returns the number of questions.
func (z *Quiz) QuestionCount() int {
	return len(z.Questions)
}

// CanDistributeMarksEqually reports whether TotalMarks splits into equal
// integer shares across the current questions. An empty quiz is trivially
// distributable.
func (z *Quiz) CanDistributeMarksEqually() bool {
	if len(z.Questions) == 0 {
		return true
	}
	return TotalMarks%len(z.Questions) == 0
}

// MarksPerQuestion returns each question's share of TotalMarks, truncated by
// integer division. When the count does not divide evenly the per-question
// shares sum to less than TotalMarks and a perfect run scores below 100;
// that truncation is accepted behavior.
func (z *Quiz) MarksPerQuestion() int {
	if len(z.Questions) == 0 {
		return 0
	}
	return TotalMarks / len(z.Questions)
}

// CalculateScore grades an ordered answer slice positionally: the answer at
// index i is checked against the question at index i, Unanswered (-1) never
// matches. A length mismatch scores 0; callers wanting an explicit error must
// validate the length up front.
func (z *Quiz) CalculateScore(answers []int) int {
	if len(answers) != len(z.Questions) {
		return 0
	}

	per := z.MarksPerQuestion()
	score := 0
	for i := range z.Questions {
		if z.Questions[i].IsCorrect(answers[i]) {
			score += per
		}
	}
	return score
}
