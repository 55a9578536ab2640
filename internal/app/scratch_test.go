package app

import (
	"context"
	"errors"
	"testing"

	"quiztaker/internal/domain"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newSharedStore()
	snapshots := NewSnapshotStore(store, "alice")
	quiz := scenarioQuiz()

	snap := domain.Snapshot{
		SessionID:            "s-1",
		QuizID:               "q1",
		QuestionIndex:        1,
		Answers:              map[string]string{"a": "X", "b": "Y"},
		TimeRemainingSeconds: 42,
		Warned:               true,
	}
	if err := snapshots.Save(ctx, snap, &quiz); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "alice:"+SessionKey); !ok {
		t.Fatalf("expected namespaced key")
	}

	got, gotQuiz, err := snapshots.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.QuestionIndex != 1 || got.TimeRemainingSeconds != 42 || !got.Warned || got.SessionID != "s-1" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if got.Answers["a"] != "X" || got.Answers["b"] != "Y" || len(got.Answers) != 2 {
		t.Fatalf("answers not preserved: %v", got.Answers)
	}
	if gotQuiz.ID != "q1" || len(gotQuiz.Questions) != 2 || *gotQuiz.Questions[1].CorrectIndex != 1 {
		t.Fatalf("quiz copy not preserved: %+v", gotQuiz)
	}
	if got.SavedAt.IsZero() {
		t.Fatalf("expected saved timestamp")
	}

	if err := snapshots.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected both keys removed")
	}
	if _, _, err := snapshots.Load(ctx); !errors.Is(err, domain.ErrNothingToResume) {
		t.Fatalf("expected nothing to resume, got %v", err)
	}
}

func TestSnapshotStoreRejectsInconsistentData(t *testing.T) {
	ctx := context.Background()
	quiz := scenarioQuiz()

	cases := map[string]domain.Snapshot{
		"index out of range": {QuizID: "q1", QuestionIndex: 5},
		"other quiz":         {QuizID: "other"},
		"unknown answer":     {QuizID: "q1", Answers: map[string]string{"zzz": "X"}},
		"negative time":      {QuizID: "q1", TimeRemainingSeconds: -1},
	}
	for name, snap := range cases {
		t.Run(name, func(t *testing.T) {
			snapshots := NewSnapshotStore(newSharedStore(), "")
			_ = snapshots.Save(ctx, snap, &quiz)
			if _, _, err := snapshots.Load(ctx); !errors.Is(err, domain.ErrStorageCorrupt) {
				t.Fatalf("expected corrupt, got %v", err)
			}
		})
	}
}

func TestSnapshotStoreMissingQuizCopy(t *testing.T) {
	ctx := context.Background()
	snapshots := NewSnapshotStore(newSharedStore(), "")
	_ = snapshots.Save(ctx, domain.Snapshot{QuizID: "q1"}, nil)

	if _, _, err := snapshots.Load(ctx); !errors.Is(err, domain.ErrStorageCorrupt) {
		t.Fatalf("expected corrupt, got %v", err)
	}
}
