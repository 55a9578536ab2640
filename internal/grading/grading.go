package grading

import (
	"strings"

	"github.com/google/uuid"

	"quiztaker/internal/domain"
)

// Grade scores a submission against the quiz's answer key. Matching is
// case-insensitive and ignores surrounding whitespace; questions without a
// known correct option are never counted as correct.
func Grade(quiz domain.Quiz, answers []domain.AnswerSubmission) (domain.SubmitResponse, error) {
	if err := domain.ValidateSubmission(quiz, answers); err != nil {
		return domain.SubmitResponse{}, err
	}

	given := make(map[string]string, len(answers))
	for _, a := range answers {
		given[a.QuestionID] = a.UserAnswer
	}

	resp := domain.SubmitResponse{
		SubmissionID: uuid.NewString(),
		Questions:    make([]domain.QuestionGrade, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		correct := false
		if answer, ok := given[q.ID]; ok {
			if expected, known := q.CorrectOption(quiz.ChoiceType); known {
				correct = matches(answer, expected)
			}
		}
		if correct {
			resp.Score++
		}
		resp.Questions = append(resp.Questions, domain.QuestionGrade{QuestionID: q.ID, IsAnswerCorrect: correct})
	}
	return resp, nil
}

func matches(answer, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(expected))
}
