package app

import "quiztaker/internal/domain"

// Subscribe returns a channel of session events starting with the current state.
// The caller must invoke the returned cancel function to avoid leaks.
func (e *Engine) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	ch <- e.eventLocked(domain.EventPhase)
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

func (e *Engine) eventLocked(kind domain.EventKind) domain.Event {
	evt := domain.Event{
		Kind:                 kind,
		SessionID:            e.sessionID,
		Phase:                e.phase,
		QuestionIndex:        e.index,
		TimeRemainingSeconds: e.remaining,
		Warning:              e.warningLocked(),
	}
	if e.quiz != nil && e.index < len(e.quiz.Questions) {
		evt.QuestionID = e.quiz.Questions[e.index].ID
	}
	return evt
}

// broadcastLocked never blocks: a full subscriber loses its oldest event.
func (e *Engine) broadcastLocked(evt domain.Event) {
	for ch := range e.subscribers {
		select {
		case ch <- evt:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}
}
