package domain

import (
	"errors"
	"testing"
)

func TestCorrectOptionPrefersIndex(t *testing.T) {
	idx := 1
	q := Question{ID: "a", Options: []string{"X", "Y"}, CorrectIndex: &idx, CorrectAnswer: "X"}
	got, ok := q.CorrectOption(ChoiceMultiple)
	if !ok || got != "Y" {
		t.Fatalf("expected Y, got %q ok=%v", got, ok)
	}

	q.CorrectIndex = nil
	got, ok = q.CorrectOption(ChoiceMultiple)
	if !ok || got != "X" {
		t.Fatalf("expected fallback to answer text, got %q ok=%v", got, ok)
	}

	q.CorrectAnswer = ""
	if _, ok := q.CorrectOption(ChoiceMultiple); ok {
		t.Fatalf("expected unknown correct option")
	}
}

func TestTrueFalseDefaultChoices(t *testing.T) {
	idx := 0
	q := Question{ID: "tf", CorrectIndex: &idx}
	choices := q.Choices(ChoiceTrueFalse)
	if len(choices) != 2 || choices[0] != "True" || choices[1] != "False" {
		t.Fatalf("unexpected choices %v", choices)
	}
	if got, _ := q.CorrectOption(ChoiceTrueFalse); got != "True" {
		t.Fatalf("expected True, got %q", got)
	}
	if len(q.Choices(ChoiceMultiple)) != 0 {
		t.Fatalf("multiple-choice question without options should stay empty")
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := map[int]string{0: "0:00", 5: "0:05", 60: "1:00", 299: "4:59", 1805: "30:05", -3: "0:00"}
	for in, want := range cases {
		if got := FormatRemaining(in); got != want {
			t.Fatalf("FormatRemaining(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestProgressPercent(t *testing.T) {
	if got := (Progress{Index: 0, Total: 4}).Percent(); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
	if got := (Progress{}).Percent(); got != 0 {
		t.Fatalf("expected 0 for empty quiz, got %v", got)
	}
}

func TestValidateQuiz(t *testing.T) {
	good := []Quiz{
		{ID: "q1", Duration: 1, ChoiceType: ChoiceMultiple, Questions: []Question{{ID: "a", Options: []string{"X"}}, {ID: "b", Options: []string{"Y"}}}},
		{ID: "tf", ChoiceType: ChoiceTrueFalse, Questions: []Question{{ID: "a"}}},
	}
	for i, quiz := range good {
		if err := ValidateQuiz(quiz); err != nil {
			t.Fatalf("case %d: expected valid quiz, got %v", i, err)
		}
	}

	bad := []Quiz{
		{ID: "q1"},
		{Questions: []Question{{ID: "a"}}},
		{ID: "q1", Duration: -1, Questions: []Question{{ID: "a"}}},
		{ID: "q1", ChoiceType: "essay", Questions: []Question{{ID: "a"}}},
		{ID: "q1", Questions: []Question{{ID: "a"}, {ID: "a"}}},
		{ID: "q1", Questions: []Question{{ID: ""}}},
		{ID: "q1", ChoiceType: ChoiceMultiple, Questions: []Question{{ID: "a", Options: []string{"X"}}, {ID: "b"}}},
		{ID: "q1", Questions: []Question{{ID: "a"}}},
	}
	for i, quiz := range bad {
		if err := ValidateQuiz(quiz); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestValidateSubmission(t *testing.T) {
	quiz := Quiz{ID: "q1", Questions: []Question{{ID: "a"}, {ID: "b"}}}
	if err := ValidateSubmission(quiz, []AnswerSubmission{}); err != nil {
		t.Fatalf("empty submission should be valid, got %v", err)
	}
	if err := ValidateSubmission(quiz, []AnswerSubmission{{QuestionID: "a", UserAnswer: "X"}}); err != nil {
		t.Fatalf("expected valid submission, got %v", err)
	}
	err := ValidateSubmission(quiz, []AnswerSubmission{{QuestionID: "zzz"}})
	if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected validation + question errors, got %v", err)
	}
	err = ValidateSubmission(quiz, []AnswerSubmission{{QuestionID: "a"}, {QuestionID: "a"}})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestWithoutAnswersLeavesOriginal(t *testing.T) {
	idx := 0
	quiz := Quiz{ID: "q1", Questions: []Question{{ID: "a", Options: []string{"X"}, CorrectIndex: &idx, CorrectAnswer: "X"}}}
	public := quiz.WithoutAnswers()
	if public.Questions[0].CorrectIndex != nil || public.Questions[0].CorrectAnswer != "" {
		t.Fatalf("expected answers stripped, got %+v", public.Questions[0])
	}
	if quiz.Questions[0].CorrectIndex == nil {
		t.Fatalf("original quiz must keep its answer key")
	}
}

func TestNotice(t *testing.T) {
	if Notice(nil) != "" {
		t.Fatalf("nil error has no notice")
	}
	if Notice(ErrNetwork) == Notice(ErrQuizNotFound) {
		t.Fatalf("expected distinct notices")
	}
}
