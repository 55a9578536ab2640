package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiztaker/internal/domain"
)

// Submission is a graded attempt as stored in the submissions table.
type Submission struct {
	bun.BaseModel `bun:"table:submissions"`

	ID        string                    `bun:"id,pk"`
	QuizID    string                    `bun:"quiz_id,notnull"`
	Score     int                       `bun:"score,notnull"`
	Answers   []domain.AnswerSubmission `bun:"answers,type:jsonb"`
	Grades    []domain.QuestionGrade    `bun:"grades,type:jsonb"`
	CreatedAt time.Time                 `bun:"created_at,notnull,default:current_timestamp"`
}

// SubmissionRecorder persists graded submissions through bun.
type SubmissionRecorder struct {
	db *bun.DB
}

func NewSubmissionRecorder(db *bun.DB) *SubmissionRecorder {
	return &SubmissionRecorder{db: db}
}

func (r *SubmissionRecorder) Record(ctx context.Context, quizID string, answers []domain.AnswerSubmission, resp domain.SubmitResponse) error {
	row := &Submission{
		ID:        resp.SubmissionID,
		QuizID:    quizID,
		Score:     resp.Score,
		Answers:   answers,
		Grades:    resp.Questions,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// Recent returns the latest submissions for a quiz, newest first.
func (r *SubmissionRecorder) Recent(ctx context.Context, quizID string, limit int) ([]Submission, error) {
	var rows []Submission
	err := r.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return rows, nil
}
