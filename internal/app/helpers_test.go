package app

import (
	"context"
	"sync"
	"time"

	"quiztaker/internal/domain"
	"quiztaker/internal/infra/memory"
)

// fakeAPI records calls and returns canned responses.
type fakeAPI struct {
	mu         sync.Mutex
	quizzes    map[string]domain.Quiz
	fetchErr   error
	submitErr  error
	response   *domain.SubmitResponse
	fetchGate  chan struct{}
	submitGate chan struct{}
	submits    [][]domain.AnswerSubmission
}

func newFakeAPI(quizzes ...domain.Quiz) *fakeAPI {
	api := &fakeAPI{quizzes: map[string]domain.Quiz{}}
	for _, q := range quizzes {
		api.quizzes[q.ID] = q
	}
	return api
}

func (f *fakeAPI) FetchQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return domain.Quiz{}, f.fetchErr
	}
	quiz, ok := f.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (f *fakeAPI) SubmitQuiz(ctx context.Context, quizID string, answers []domain.AnswerSubmission) (domain.SubmitResponse, error) {
	if f.submitGate != nil {
		<-f.submitGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, answers)
	if f.submitErr != nil {
		return domain.SubmitResponse{}, f.submitErr
	}
	if f.response != nil {
		return *f.response, nil
	}
	return domain.SubmitResponse{Score: 0}, nil
}

func (f *fakeAPI) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func (f *fakeAPI) lastSubmit() []domain.AnswerSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.submits) == 0 {
		return nil
	}
	return f.submits[len(f.submits)-1]
}

// manualClock hands out tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) latest() *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *manualTicker) fire() { t.ch <- time.Now() }

func intPtr(v int) *int { return &v }

// scenarioQuiz is the two-question, one-minute quiz used across tests.
func scenarioQuiz() domain.Quiz {
	return domain.Quiz{
		ID:         "q1",
		Title:      "Letters",
		Duration:   1,
		ChoiceType: domain.ChoiceMultiple,
		Questions: []domain.Question{
			{ID: "a", Text: "Pick X", Options: []string{"X", "Y"}, CorrectIndex: intPtr(0)},
			{ID: "b", Text: "Pick Y", Options: []string{"X", "Y"}, CorrectIndex: intPtr(1)},
		},
	}
}

func untimedQuiz() domain.Quiz {
	quiz := scenarioQuiz()
	quiz.ID = "untimed"
	quiz.Duration = 0
	return quiz
}

func newTestEngine(api QuizAPI, opts ...Option) (*Engine, *memory.ScratchStore, *manualClock) {
	store := memory.NewScratchStore()
	clock := &manualClock{}
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewEngine(api, store, opts...), store, clock
}

// tickN drives the countdown without wall-clock delay.
func tickN(e *Engine, n int) {
	e.mu.Lock()
	gen := e.gen
	e.mu.Unlock()
	for i := 0; i < n; i++ {
		e.tick(gen)
	}
}

func newSharedStore() *memory.ScratchStore { return memory.NewScratchStore() }
