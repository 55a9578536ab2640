package domain

import (
	"fmt"
	"time"
)

// ChoiceType describes how a quiz's questions are answered.
type ChoiceType string

const (
	ChoiceMultiple  ChoiceType = "multiple"
	ChoiceTrueFalse ChoiceType = "true-false"
)

// Question models a single quiz question. CorrectIndex and CorrectAnswer are only
// present when the server chooses to reveal them.
type Question struct {
	ID            string   `json:"id" yaml:"id" validate:"required"`
	Text          string   `json:"question" yaml:"question"`
	Options       []string `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectIndex  *int     `json:"correctIndex,omitempty" yaml:"correctIndex,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty" yaml:"correctAnswer,omitempty"`
}

// Choices returns the options a user can pick from. True-false questions
// published without options get the canonical pair.
func (q Question) Choices(kind ChoiceType) []string {
	if len(q.Options) == 0 && kind == ChoiceTrueFalse {
		return []string{"True", "False"}
	}
	return q.Options
}

// CorrectOption resolves the correct option text, preferring the index.
func (q Question) CorrectOption(kind ChoiceType) (string, bool) {
	choices := q.Choices(kind)
	if q.CorrectIndex != nil {
		idx := *q.CorrectIndex
		if idx >= 0 && idx < len(choices) {
			return choices[idx], true
		}
	}
	if q.CorrectAnswer != "" {
		return q.CorrectAnswer, true
	}
	return "", false
}

// Quiz is an ordered collection of questions with an optional time limit.
type Quiz struct {
	ID          string     `json:"id" yaml:"id" validate:"required"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Difficulty  string     `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Duration    int        `json:"duration" yaml:"duration" validate:"gte=0"` // minutes, 0 = unlimited
	ChoiceType  ChoiceType `json:"choiceType,omitempty" yaml:"choiceType,omitempty" validate:"omitempty,oneof=multiple true-false"`
	Questions   []Question `json:"questions" yaml:"questions" validate:"required,min=1,dive"`
}

// Question looks up a question by id.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// DurationSeconds is the full time allowance of the quiz.
func (q Quiz) DurationSeconds() int {
	return q.Duration * 60
}

// Timed reports whether the quiz has a countdown.
func (q Quiz) Timed() bool {
	return q.Duration > 0
}

// WithoutAnswers returns a copy safe to hand to quiz takers.
func (q Quiz) WithoutAnswers() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectIndex = nil
		question.CorrectAnswer = ""
		out.Questions[i] = question
	}
	return out
}

// Phase is the lifecycle stage of a quiz-taking session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseActive     Phase = "active"
	PhaseSubmitting Phase = "submitting"
	PhaseReviewing  Phase = "reviewing"
)

// Snapshot is the persisted form of an in-progress session.
type Snapshot struct {
	SessionID            string            `json:"sessionId"`
	QuizID               string            `json:"quizId"`
	QuestionIndex        int               `json:"questionIndex"`
	Answers              map[string]string `json:"answers"`
	TimeRemainingSeconds int               `json:"timeRemainingSeconds"`
	Warned               bool              `json:"warned,omitempty"`
	SavedAt              time.Time         `json:"savedAt"`
}

// AnswerSubmission is one entry of a submission payload.
type AnswerSubmission struct {
	QuestionID string `json:"questionId" validate:"required"`
	UserAnswer string `json:"userAnswer"`
}

// QuestionGrade is the server's verdict for a single question.
type QuestionGrade struct {
	QuestionID      string `json:"questionId"`
	IsAnswerCorrect bool   `json:"isAnswerCorrect"`
}

// SubmitResponse is the server's grading of a submission. Questions is nil when
// the server returns only the score.
type SubmitResponse struct {
	SubmissionID string          `json:"submissionId,omitempty"`
	Score        int             `json:"score"`
	Questions    []QuestionGrade `json:"questions,omitempty"`
}

// GradeSource records where an outcome's correctness came from.
type GradeSource string

const (
	GradedByServer GradeSource = "server"
	GradedLocally  GradeSource = "local"
	Ungraded       GradeSource = "ungraded"
)

// Outcome is the per-question line of a Result.
type Outcome struct {
	QuestionID    string      `json:"questionId"`
	UserAnswer    string      `json:"userAnswer"`
	CorrectAnswer string      `json:"correctAnswer,omitempty"`
	IsCorrect     bool        `json:"isCorrect"`
	Source        GradeSource `json:"source"`
}

// Result is the normalized grading of one submission.
type Result struct {
	QuizID       string    `json:"quizId"`
	SubmissionID string    `json:"submissionId,omitempty"`
	Score        int       `json:"score"`
	Total        int       `json:"total"`
	Approximate  bool      `json:"approximate"`
	Outcomes     []Outcome `json:"outcomes"`
}

// Progress is the cursor position shown to the user.
type Progress struct {
	Index int `json:"index"`
	Total int `json:"total"`
}

// Percent mirrors the progress bar: the current question counts as reached.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Index+1) / float64(p.Total) * 100
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// EventKind identifies a session event.
type EventKind string

const (
	EventPhase  EventKind = "phase"
	EventTick   EventKind = "tick"
	EventAnswer EventKind = "answer"
	EventCursor EventKind = "cursor"
)

// Event is delivered to engine subscribers.
type Event struct {
	Kind                 EventKind `json:"kind"`
	SessionID            string    `json:"sessionId,omitempty"`
	Phase                Phase     `json:"phase"`
	QuestionIndex        int       `json:"questionIndex"`
	QuestionID           string    `json:"questionId,omitempty"`
	Answer               string    `json:"answer,omitempty"`
	TimeRemainingSeconds int       `json:"timeRemainingSeconds"`
	Warning              bool      `json:"warning"`
	Notice               string    `json:"notice,omitempty"`
}
