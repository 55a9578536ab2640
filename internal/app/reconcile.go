package app

import "quiztaker/internal/domain"

// Reconcile merges the server's grading with what the client knows about the
// quiz. Per-question server flags win whenever the server sent them for every
// question. Otherwise each missing verdict falls back to exact string equality
// against the quiz's known correct option, and the score is recounted.
func Reconcile(quiz domain.Quiz, answers map[string]string, resp domain.SubmitResponse) domain.Result {
	flags := make(map[string]bool, len(resp.Questions))
	for _, g := range resp.Questions {
		flags[g.QuestionID] = g.IsAnswerCorrect
	}
	complete := true
	for _, q := range quiz.Questions {
		if _, ok := flags[q.ID]; !ok {
			complete = false
			break
		}
	}

	result := domain.Result{
		QuizID:       quiz.ID,
		SubmissionID: resp.SubmissionID,
		Total:        len(quiz.Questions),
		Outcomes:     make([]domain.Outcome, 0, len(quiz.Questions)),
	}

	correct := 0
	graded := 0
	for _, q := range quiz.Questions {
		userAnswer := answers[q.ID]
		expected, known := q.CorrectOption(quiz.ChoiceType)
		outcome := domain.Outcome{
			QuestionID:    q.ID,
			UserAnswer:    userAnswer,
			CorrectAnswer: expected,
		}
		if flag, ok := flags[q.ID]; ok {
			outcome.IsCorrect = flag
			outcome.Source = domain.GradedByServer
			graded++
		} else if known {
			_, answered := answers[q.ID]
			outcome.IsCorrect = answered && userAnswer == expected
			outcome.Source = domain.GradedLocally
			graded++
		} else {
			outcome.Source = domain.Ungraded
		}
		if outcome.IsCorrect {
			correct++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	switch {
	case complete:
		result.Score = resp.Score
	case graded == 0:
		// Nothing to recount from; the server's number is all we have.
		result.Score = resp.Score
		result.Approximate = true
	default:
		result.Score = correct
		result.Approximate = true
	}
	return result
}
