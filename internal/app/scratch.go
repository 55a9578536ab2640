package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiztaker/internal/domain"
)

const (
	// SessionKey holds the serialized Snapshot.
	SessionKey = "active-session"
	// SessionQuizKey holds a full copy of the quiz so resume works offline.
	SessionQuizKey = "active-session-quiz"
)

// ScratchStore is a synchronous key-value store without expiry (memory, SQLite, Redis).
// Delete must remove all given keys atomically with respect to readers.
type ScratchStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// SnapshotStore maps sessions onto the two scratch keys.
type SnapshotStore struct {
	store     ScratchStore
	namespace string
	now       func() time.Time
}

func NewSnapshotStore(store ScratchStore, namespace string) *SnapshotStore {
	return &SnapshotStore{store: store, namespace: namespace, now: time.Now}
}

func (s *SnapshotStore) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + ":" + name
}

// Save writes the session snapshot, and the quiz copy when quiz is non-nil.
// The quiz is written first so a reader never sees a session without its quiz.
func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot, quiz *domain.Quiz) error {
	if quiz != nil {
		raw, err := json.Marshal(quiz)
		if err != nil {
			return fmt.Errorf("marshal quiz: %w", err)
		}
		if err := s.store.Set(ctx, s.key(SessionQuizKey), string(raw)); err != nil {
			return fmt.Errorf("store quiz: %w", err)
		}
	}
	snap.SavedAt = s.now()
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.store.Set(ctx, s.key(SessionKey), string(raw)); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Load returns the stored session and its quiz. It returns ErrNothingToResume
// when no session is stored and ErrStorageCorrupt when it cannot be used.
func (s *SnapshotStore) Load(ctx context.Context) (domain.Snapshot, domain.Quiz, error) {
	rawSnap, ok, err := s.store.Get(ctx, s.key(SessionKey))
	if err != nil {
		return domain.Snapshot{}, domain.Quiz{}, fmt.Errorf("%w: read snapshot: %v", domain.ErrStorageCorrupt, err)
	}
	if !ok {
		return domain.Snapshot{}, domain.Quiz{}, domain.ErrNothingToResume
	}
	rawQuiz, ok, err := s.store.Get(ctx, s.key(SessionQuizKey))
	if err != nil {
		return domain.Snapshot{}, domain.Quiz{}, fmt.Errorf("%w: read quiz: %v", domain.ErrStorageCorrupt, err)
	}
	if !ok {
		return domain.Snapshot{}, domain.Quiz{}, fmt.Errorf("%w: quiz copy missing", domain.ErrStorageCorrupt)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(rawSnap), &snap); err != nil {
		return domain.Snapshot{}, domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrStorageCorrupt, err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(rawQuiz), &quiz); err != nil {
		return domain.Snapshot{}, domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrStorageCorrupt, err)
	}
	if err := checkSnapshot(snap, quiz); err != nil {
		return domain.Snapshot{}, domain.Quiz{}, err
	}
	if snap.Answers == nil {
		snap.Answers = map[string]string{}
	}
	return snap, quiz, nil
}

// Clear removes both keys in one store operation.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.key(SessionKey), s.key(SessionQuizKey))
}

func checkSnapshot(snap domain.Snapshot, quiz domain.Quiz) error {
	if err := domain.ValidateQuiz(quiz); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageCorrupt, err)
	}
	if snap.QuizID != quiz.ID {
		return fmt.Errorf("%w: snapshot for %q but quiz %q", domain.ErrStorageCorrupt, snap.QuizID, quiz.ID)
	}
	if snap.QuestionIndex < 0 || snap.QuestionIndex >= len(quiz.Questions) {
		return fmt.Errorf("%w: question index %d out of range", domain.ErrStorageCorrupt, snap.QuestionIndex)
	}
	if snap.TimeRemainingSeconds < 0 {
		return fmt.Errorf("%w: negative time remaining", domain.ErrStorageCorrupt)
	}
	for id := range snap.Answers {
		if _, ok := quiz.Question(id); !ok {
			return fmt.Errorf("%w: answer for unknown question %q", domain.ErrStorageCorrupt, id)
		}
	}
	return nil
}

// isResumeMiss reports errors that mean "no session", as opposed to a store outage.
func isResumeMiss(err error) bool {
	return errors.Is(err, domain.ErrNothingToResume) || errors.Is(err, domain.ErrStorageCorrupt)
}
