package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quiztaker/internal/domain"
	"quiztaker/internal/logging"
	"quiztaker/internal/metrics"
)

const (
	defaultWarningBelow    = 300
	defaultCheckpointEvery = 15
)

// QuizAPI is the remote quiz service as seen by the engine.
type QuizAPI interface {
	FetchQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SubmitQuiz(ctx context.Context, quizID string, answers []domain.AnswerSubmission) (domain.SubmitResponse, error)
}

// Option customizes an Engine.
type Option func(*Engine)

func WithClock(clock Clock) Option { return func(e *Engine) { e.clock = clock } }

func WithTickInterval(d time.Duration) Option { return func(e *Engine) { e.tickInterval = d } }

func WithLogger(log logrus.FieldLogger) Option { return func(e *Engine) { e.log = log } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithNamespace prefixes the scratch keys, for stores shared between users.
func WithNamespace(ns string) Option { return func(e *Engine) { e.namespace = ns } }

func WithWarningBelow(seconds int) Option {
	return func(e *Engine) {
		if seconds > 0 {
			e.warnBelow = seconds
		}
	}
}

func WithCheckpointEvery(ticks int) Option {
	return func(e *Engine) {
		if ticks > 0 {
			e.checkpointEvery = ticks
		}
	}
}

// Engine drives one quiz-taking session through
// idle -> loading -> active -> submitting -> reviewing.
// Network calls run without the lock held; the transitional phases reject
// every other mutation until they resolve.
type Engine struct {
	api       QuizAPI
	snapshots *SnapshotStore
	timer     *Timer
	log       logrus.FieldLogger
	metrics   *metrics.Metrics

	clock           Clock
	tickInterval    time.Duration
	namespace       string
	warnBelow       int
	checkpointEvery int

	mu          sync.Mutex
	phase       domain.Phase
	gen         uint64
	sessionID   string
	quiz        *domain.Quiz
	index       int
	answers     map[string]string
	remaining   int
	warned      bool
	result      *domain.Result
	subscribers map[chan domain.Event]struct{}
}

func NewEngine(api QuizAPI, scratch ScratchStore, opts ...Option) *Engine {
	e := &Engine{
		api:             api,
		log:             logging.Discard(),
		clock:           RealClock(),
		tickInterval:    time.Second,
		warnBelow:       defaultWarningBelow,
		checkpointEvery: defaultCheckpointEvery,
		phase:           domain.PhaseIdle,
		answers:         map[string]string{},
		subscribers:     make(map[chan domain.Event]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.snapshots = NewSnapshotStore(scratch, e.namespace)
	e.timer = NewTimer(e.clock, e.tickInterval)
	return e
}

// Start fetches a quiz and opens a fresh session on it.
func (e *Engine) Start(ctx context.Context, quizID string) error {
	e.mu.Lock()
	if e.phase != domain.PhaseIdle {
		phase := e.phase
		e.mu.Unlock()
		return fmt.Errorf("%w: start while %s", domain.ErrInvalidTransition, phase)
	}
	e.result = nil
	e.gen++
	gen := e.gen
	e.setPhaseLocked(domain.PhaseLoading)
	e.mu.Unlock()

	quiz, err := e.api.FetchQuiz(ctx, quizID)
	if err == nil {
		err = domain.ValidateQuiz(quiz)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen || e.phase != domain.PhaseLoading {
		return fmt.Errorf("%w: session exited while loading %s", domain.ErrInvalidTransition, quizID)
	}
	if err != nil {
		e.resetLocked()
		e.setPhaseLocked(domain.PhaseIdle)
		e.log.WithError(err).WithField("quiz_id", quizID).Warn("quiz fetch failed")
		return fmt.Errorf("start quiz %s: %w", quizID, err)
	}

	e.sessionID = uuid.NewString()
	e.quiz = &quiz
	e.index = 0
	e.answers = map[string]string{}
	e.remaining = quiz.DurationSeconds()
	e.warned = false
	e.persistLocked(ctx, true)
	e.setPhaseLocked(domain.PhaseActive)
	e.metrics.SessionStarted()
	if quiz.Timed() {
		e.startTimerLocked()
	}
	e.logger().WithField("questions", len(quiz.Questions)).Info("session started")
	return nil
}

// Resume restores the session stored in the scratch store. It returns
// ErrNothingToResume, without touching state, when there is no usable snapshot.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != domain.PhaseIdle {
		return fmt.Errorf("%w: resume while %s", domain.ErrInvalidTransition, e.phase)
	}

	snap, quiz, err := e.snapshots.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStorageCorrupt) {
			e.log.WithError(err).Warn("discarding unusable session snapshot")
			if clearErr := e.snapshots.Clear(ctx); clearErr != nil {
				e.log.WithError(clearErr).Warn("clear corrupt snapshot")
			}
		}
		if isResumeMiss(err) {
			return domain.ErrNothingToResume
		}
		return err
	}

	remaining := snap.TimeRemainingSeconds
	if quiz.Timed() && remaining > quiz.DurationSeconds() {
		remaining = quiz.DurationSeconds()
	}

	e.result = nil
	e.gen++
	e.sessionID = snap.SessionID
	if e.sessionID == "" {
		e.sessionID = uuid.NewString()
	}
	e.quiz = &quiz
	e.index = snap.QuestionIndex
	e.answers = snap.Answers
	e.remaining = remaining
	e.warned = snap.Warned
	e.setPhaseLocked(domain.PhaseActive)
	e.metrics.SessionResumed()
	if quiz.Timed() && remaining > 0 {
		e.startTimerLocked()
	}
	e.logger().WithField("answered", len(e.answers)).Info("session resumed")
	return nil
}

// SelectAnswer records the answer for a question of the active quiz.
func (e *Engine) SelectAnswer(ctx context.Context, questionID, answer string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != domain.PhaseActive {
		return fmt.Errorf("%w: select answer while %s", domain.ErrInvalidTransition, e.phase)
	}
	if _, ok := e.quiz.Question(questionID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, questionID)
	}
	if prev, ok := e.answers[questionID]; ok && prev == answer {
		return nil
	}
	e.answers[questionID] = answer
	e.persistLocked(ctx, false)

	evt := e.eventLocked(domain.EventAnswer)
	evt.QuestionID = questionID
	evt.Answer = answer
	e.broadcastLocked(evt)
	return nil
}

// Next moves the cursor forward. Moving past the last question is a no-op.
func (e *Engine) Next(ctx context.Context) (bool, error) {
	return e.move(ctx, 1)
}

// Previous moves the cursor back. Moving before the first question is a no-op.
func (e *Engine) Previous(ctx context.Context) (bool, error) {
	return e.move(ctx, -1)
}

func (e *Engine) move(ctx context.Context, delta int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != domain.PhaseActive {
		return false, fmt.Errorf("%w: navigate while %s", domain.ErrInvalidTransition, e.phase)
	}
	target := e.index + delta
	if target < 0 || target >= len(e.quiz.Questions) {
		return false, nil
	}
	e.index = target
	e.persistLocked(ctx, false)
	e.broadcastLocked(e.eventLocked(domain.EventCursor))
	return true, nil
}

// Submit sends the answers for grading. Without force, an incomplete answer
// set returns ErrConfirmationRequired and leaves the session active.
// The snapshot is cleared whether or not the server accepts the submission.
func (e *Engine) Submit(ctx context.Context, force bool) (domain.Result, error) {
	return e.submit(ctx, force, "manual")
}

func (e *Engine) submit(ctx context.Context, force bool, trigger string) (domain.Result, error) {
	e.mu.Lock()
	return e.submitLocked(ctx, force, trigger)
}

// submitLocked must be entered with e.mu held; it returns with e.mu released.
func (e *Engine) submitLocked(ctx context.Context, force bool, trigger string) (domain.Result, error) {
	if e.phase != domain.PhaseActive {
		phase := e.phase
		e.mu.Unlock()
		return domain.Result{}, fmt.Errorf("%w: submit while %s", domain.ErrInvalidTransition, phase)
	}
	total := len(e.quiz.Questions)
	if !force && len(e.answers) < total {
		answered := len(e.answers)
		e.mu.Unlock()
		return domain.Result{}, fmt.Errorf("%w: %d of %d answered", domain.ErrConfirmationRequired, answered, total)
	}

	e.timer.Stop()
	quiz := *e.quiz
	answers := make(map[string]string, len(e.answers))
	for k, v := range e.answers {
		answers[k] = v
	}
	payload := submissionPayload(quiz, answers)
	e.setPhaseLocked(domain.PhaseSubmitting)
	log := e.logger()
	e.mu.Unlock()

	resp, err := e.api.SubmitQuiz(ctx, quiz.ID, payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	if clearErr := e.snapshots.Clear(ctx); clearErr != nil {
		log.WithError(clearErr).Warn("clear snapshot after submit")
	}
	if err != nil {
		e.metrics.Submission(trigger, "error")
		e.resetLocked()
		e.setPhaseLocked(domain.PhaseIdle)
		log.WithError(err).Warn("submission failed, session abandoned")
		return domain.Result{}, fmt.Errorf("submit quiz %s: %w", quiz.ID, err)
	}

	result := Reconcile(quiz, answers, resp)
	e.result = &result
	e.metrics.Submission(trigger, "ok")
	e.setPhaseLocked(domain.PhaseReviewing)
	log.WithFields(logrus.Fields{"score": result.Score, "approximate": result.Approximate}).Info("quiz submitted")
	return result, nil
}

// Exit abandons the session from any phase except submitting.
func (e *Engine) Exit(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == domain.PhaseSubmitting {
		return fmt.Errorf("%w: exit while submitting", domain.ErrInvalidTransition)
	}
	e.timer.Stop()
	if err := e.snapshots.Clear(ctx); err != nil {
		e.log.WithError(err).Warn("clear snapshot on exit")
	}
	e.gen++
	e.resetLocked()
	e.result = nil
	e.setPhaseLocked(domain.PhaseIdle)
	return nil
}

// Suspend stops the countdown and writes a final snapshot, leaving the session
// resumable by a later process. It does nothing unless a session is active.
func (e *Engine) Suspend() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != domain.PhaseActive {
		return
	}
	e.timer.Stop()
	e.gen++
	e.persistLocked(context.Background(), false)
	e.logger().WithField("remaining", e.remaining).Info("session suspended")
}

// Phase reports the current lifecycle stage.
func (e *Engine) Phase() domain.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// CurrentQuestion returns the question under the cursor, if any.
func (e *Engine) CurrentQuestion() (domain.Question, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.quiz == nil || (e.phase != domain.PhaseActive && e.phase != domain.PhaseSubmitting) {
		return domain.Question{}, false
	}
	return e.quiz.Questions[e.index], true
}

// Quiz returns the quiz of the current session, if any.
func (e *Engine) Quiz() (domain.Quiz, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.quiz == nil {
		return domain.Quiz{}, false
	}
	return *e.quiz, true
}

func (e *Engine) Progress() domain.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.quiz == nil {
		return domain.Progress{}
	}
	return domain.Progress{Index: e.index, Total: len(e.quiz.Questions)}
}

// WarningActive is recomputed from the remaining time on every read and
// latches once it has fired.
func (e *Engine) WarningActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.warningLocked()
}

func (e *Engine) TimeRemaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

// Answers returns a copy of the recorded answers.
func (e *Engine) Answers() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.answers))
	for k, v := range e.answers {
		out[k] = v
	}
	return out
}

// Result returns the graded result while reviewing.
func (e *Engine) Result() (domain.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result == nil {
		return domain.Result{}, false
	}
	return *e.result, true
}

func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

func (e *Engine) startTimerLocked() {
	gen := e.gen
	e.timer.Start(func() { e.tick(gen) })
}

// tick advances the countdown by one second. Reaching zero stops the timer
// and force-submits exactly once.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if e.gen != gen || e.phase != domain.PhaseActive || !e.quiz.Timed() || e.remaining == 0 {
		e.mu.Unlock()
		return
	}
	e.remaining--
	if e.remaining < e.warnBelow {
		e.warned = true
	}
	if e.remaining > 0 && e.remaining%e.checkpointEvery == 0 {
		e.persistLocked(context.Background(), false)
		e.metrics.Checkpoint()
	}
	e.broadcastLocked(e.eventLocked(domain.EventTick))
	expired := e.remaining == 0
	log := e.logger()
	e.mu.Unlock()

	if !expired {
		return
	}
	log.Info("time is up, submitting")
	e.expire(gen, log)
}

// expire force-submits the session whose countdown reached zero. A session
// exited or replaced since that tick is left alone, timer included.
func (e *Engine) expire(gen uint64, log logrus.FieldLogger) {
	e.mu.Lock()
	if e.gen != gen || e.phase != domain.PhaseActive {
		e.mu.Unlock()
		log.Debug("session changed before expiry, not submitting")
		return
	}
	if _, err := e.submitLocked(context.Background(), true, "auto"); err != nil {
		log.WithError(err).Warn("automatic submission failed")
	}
}

func (e *Engine) warningLocked() bool {
	if e.warned {
		return true
	}
	return e.quiz != nil && e.quiz.Timed() && e.phase != domain.PhaseIdle && e.remaining < e.warnBelow
}

func (e *Engine) persistLocked(ctx context.Context, withQuiz bool) {
	snap := domain.Snapshot{
		SessionID:            e.sessionID,
		QuizID:               e.quiz.ID,
		QuestionIndex:        e.index,
		Answers:              e.answers,
		TimeRemainingSeconds: e.remaining,
		Warned:               e.warned,
	}
	var quiz *domain.Quiz
	if withQuiz {
		quiz = e.quiz
	}
	err := e.snapshots.Save(ctx, snap, quiz)
	e.metrics.SnapshotWrite(err)
	if err != nil {
		e.logger().WithError(err).Warn("snapshot write failed")
	}
}

func (e *Engine) setPhaseLocked(p domain.Phase) {
	if e.phase == domain.PhaseActive && p != domain.PhaseActive {
		e.metrics.SessionEnded()
	}
	e.phase = p
	e.broadcastLocked(e.eventLocked(domain.EventPhase))
	e.logger().Debug("phase changed")
}

func (e *Engine) resetLocked() {
	e.sessionID = ""
	e.quiz = nil
	e.index = 0
	e.answers = map[string]string{}
	e.remaining = 0
	e.warned = false
}

func (e *Engine) logger() logrus.FieldLogger {
	fields := logrus.Fields{"phase": e.phase}
	if e.sessionID != "" {
		fields["session_id"] = e.sessionID
	}
	if e.quiz != nil {
		fields["quiz_id"] = e.quiz.ID
	}
	return e.log.WithFields(fields)
}

// submissionPayload lists answered questions in quiz order. It is never nil so
// an empty submission still encodes as an empty sequence.
func submissionPayload(quiz domain.Quiz, answers map[string]string) []domain.AnswerSubmission {
	out := make([]domain.AnswerSubmission, 0, len(answers))
	for _, q := range quiz.Questions {
		if answer, ok := answers[q.ID]; ok {
			out = append(out, domain.AnswerSubmission{QuestionID: q.ID, UserAnswer: answer})
		}
	}
	return out
}
