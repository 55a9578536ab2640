package memory

import (
	"context"
	"sync"

	"quiztaker/internal/domain"
	"quiztaker/internal/grading"
)

// QuizAPI serves quizzes and grades submissions in-process. It backs offline
// play and tests, standing in for the remote quiz service.
type QuizAPI struct {
	loader        QuizLoader
	revealAnswers bool

	mu          sync.Mutex
	submissions map[string][][]domain.AnswerSubmission
}

func NewQuizAPI(loader QuizLoader, revealAnswers bool) *QuizAPI {
	return &QuizAPI{
		loader:        loader,
		revealAnswers: revealAnswers,
		submissions:   make(map[string][][]domain.AnswerSubmission),
	}
}

func (a *QuizAPI) FetchQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := a.loader.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if a.revealAnswers {
		return quiz, nil
	}
	return quiz.WithoutAnswers(), nil
}

func (a *QuizAPI) SubmitQuiz(ctx context.Context, quizID string, answers []domain.AnswerSubmission) (domain.SubmitResponse, error) {
	quiz, err := a.loader.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmitResponse{}, err
	}
	resp, err := grading.Grade(quiz, answers)
	if err != nil {
		return domain.SubmitResponse{}, err
	}
	a.mu.Lock()
	a.submissions[quizID] = append(a.submissions[quizID], append([]domain.AnswerSubmission(nil), answers...))
	a.mu.Unlock()
	return resp, nil
}

// Submissions returns what was submitted for a quiz, oldest first.
func (a *QuizAPI) Submissions(quizID string) [][]domain.AnswerSubmission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]domain.AnswerSubmission(nil), a.submissions[quizID]...)
}
