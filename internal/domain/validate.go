package domain

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateQuiz checks that a fetched quiz can drive a session.
func ValidateQuiz(quiz Quiz) error {
	if err := validatorInstance().Struct(quiz); err != nil {
		return fmt.Errorf("%w: quiz: %v", ErrValidation, err)
	}
	seen := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrValidation, q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(q.Choices(quiz.ChoiceType)) == 0 {
			return fmt.Errorf("%w: question %q has no options", ErrValidation, q.ID)
		}
	}
	return nil
}

// ValidateSubmission checks an outgoing answer payload against its quiz.
func ValidateSubmission(quiz Quiz, answers []AnswerSubmission) error {
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if err := validatorInstance().Struct(a); err != nil {
			return fmt.Errorf("%w: answer: %v", ErrValidation, err)
		}
		if _, ok := quiz.Question(a.QuestionID); !ok {
			return fmt.Errorf("%w: %w: %s", ErrValidation, ErrQuestionNotFound, a.QuestionID)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return fmt.Errorf("%w: duplicate answer for %q", ErrValidation, a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
	}
	return nil
}
