package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiztaker/internal/app"
	"quiztaker/internal/domain"
	"quiztaker/internal/logging"
)

// WSHandler bridges one Engine to browser views: commands come in as JSON
// messages, engine events and state go out.
type WSHandler struct {
	engine    *app.Engine
	upgrader  websocket.Upgrader
	log       logrus.FieldLogger
	writeWait time.Duration
}

const defaultWriteWait = 10 * time.Second

type WSOption func(*WSHandler)

// WithWriteTimeout bounds each outbound write; a peer that stops reading is dropped.
func WithWriteTimeout(d time.Duration) WSOption {
	return func(h *WSHandler) {
		if d > 0 {
			h.writeWait = d
		}
	}
}

func NewWSHandler(engine *app.Engine, log logrus.FieldLogger, opts ...WSOption) *WSHandler {
	if log == nil {
		log = logging.Discard()
	}
	h := &WSHandler{
		engine:    engine,
		log:       log,
		writeWait: defaultWriteWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	QuizID string `json:"quizId"`
}

type selectPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type submitPayload struct {
	Force bool `json:"force"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// StateView is everything a view needs to render the session.
type StateView struct {
	SessionID     string            `json:"sessionId,omitempty"`
	Phase         domain.Phase      `json:"phase"`
	Quiz          *QuizView         `json:"quiz,omitempty"`
	Question      *domain.Question  `json:"question,omitempty"`
	Progress      domain.Progress   `json:"progress"`
	Percent       float64           `json:"percent"`
	TimeRemaining int               `json:"timeRemainingSeconds"`
	Clock         string            `json:"clock"`
	Warning       bool              `json:"warning"`
	Answers       map[string]string `json:"answers"`
}

// QuizView is the quiz header without questions.
type QuizView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Duration    int    `json:"duration"`
}

func (h *WSHandler) state() StateView {
	progress := h.engine.Progress()
	view := StateView{
		SessionID:     h.engine.SessionID(),
		Phase:         h.engine.Phase(),
		Progress:      progress,
		Percent:       progress.Percent(),
		TimeRemaining: h.engine.TimeRemaining(),
		Warning:       h.engine.WarningActive(),
		Answers:       h.engine.Answers(),
	}
	view.Clock = domain.FormatRemaining(view.TimeRemaining)
	if quiz, ok := h.engine.Quiz(); ok {
		view.Quiz = &QuizView{
			ID:          quiz.ID,
			Title:       quiz.Title,
			Description: quiz.Description,
			Difficulty:  quiz.Difficulty,
			Duration:    quiz.Duration,
		}
		if q, ok := h.engine.CurrentQuestion(); ok {
			q.Options = q.Choices(quiz.ChoiceType)
			// the view never sees the answer key
			q.CorrectIndex = nil
			q.CorrectAnswer = ""
			view.Question = &q
		}
	}
	return view
}

// ServeWS upgrades HTTP requests to websockets and wires them into the engine.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := h.engine.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// single writer: gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.WithError(err).Debug("ws write error")
				// unblock the read loop too
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: "event", Payload: evt}}
				if evt.Kind == domain.EventPhase && evt.Phase == domain.PhaseReviewing {
					if result, ok := h.engine.Result(); ok {
						msgs = append(msgs, outboundMessage[any]{Type: "result", Payload: result})
					}
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					case <-writerDone:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	deliver := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	alive := deliver(outboundMessage[any]{Type: "state", Payload: h.state()})
	for alive {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, inbound); err != nil {
			alive = deliver(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: domain.Notice(err), Detail: err.Error()}})
			continue
		}
		alive = deliver(outboundMessage[any]{Type: "state", Payload: h.state()})
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

var errUnsupported = errors.New("unsupported message type")

func (h *WSHandler) dispatch(r *http.Request, in inboundMessage) error {
	ctx := r.Context()
	switch in.Type {
	case "start":
		var p startPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.QuizID == "" {
			return domain.ErrValidation
		}
		return h.engine.Start(ctx, p.QuizID)
	case "resume":
		return h.engine.Resume(ctx)
	case "select":
		var p selectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return domain.ErrValidation
		}
		return h.engine.SelectAnswer(ctx, p.QuestionID, p.Answer)
	case "next":
		_, err := h.engine.Next(ctx)
		return err
	case "previous":
		_, err := h.engine.Previous(ctx)
		return err
	case "submit":
		var p submitPayload
		if len(in.Payload) > 0 {
			if err := json.Unmarshal(in.Payload, &p); err != nil {
				return domain.ErrValidation
			}
		}
		_, err := h.engine.Submit(ctx, p.Force)
		return err
	case "exit":
		return h.engine.Exit(ctx)
	case "state":
		return nil
	default:
		return errUnsupported
	}
}
