package service

import (
	"context"
	"sync"

	"github.com/dafibh/piflow/piflow-backend/internal/domain"
	"github.com/dafibh/piflow/piflow-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// loopSession is one continuous-transfer session. The process holds at
// most one at a time.
type loopSession struct {
	id      uuid.UUID
	request *domain.TransferRequest
	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped bool
}

// TransferWorker repeats full transfer runs in the background until told
// to stop. Start is idempotent while a session is active; Stop blocks
// until the loop goroutine has observed the signal and exited, so no
// round is left executing afterwards.
type TransferWorker struct {
	transferService *TransferService
	eventPublisher  websocket.EventPublisher
	logger          zerolog.Logger
	mu              sync.Mutex
	session         *loopSession
}

// NewTransferWorker creates a new TransferWorker
func NewTransferWorker(transferService *TransferService, logger zerolog.Logger) *TransferWorker {
	return &TransferWorker{
		transferService: transferService,
		logger:          logger.With().Str("component", "transfer_worker").Logger(),
	}
}

// SetEventPublisher sets the event publisher for loop lifecycle events
func (w *TransferWorker) SetEventPublisher(publisher websocket.EventPublisher) {
	w.eventPublisher = publisher
}

func (w *TransferWorker) publishEvent(event websocket.Event) {
	if w.eventPublisher != nil {
		w.eventPublisher.Publish(event)
	}
}

// Start begins a continuous transfer loop for the given request. If a
// session is already active its id is returned together with
// domain.ErrAlreadyRunning and no second loop is spawned.
func (w *TransferWorker) Start(req *domain.TransferRequest) (uuid.UUID, error) {
	if err := w.transferService.ValidateRequest(req); err != nil {
		return uuid.Nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session != nil {
		return w.session.id, domain.ErrAlreadyRunning
	}

	session := &loopSession{
		id:      uuid.New(),
		request: req,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	w.session = session

	w.logger.Info().
		Str("session_id", session.id.String()).
		Int("seeds", len(req.Seeds)).
		Msg("Starting transfer loop")

	go w.run(session)

	w.publishEvent(websocket.LoopStarted(map[string]interface{}{
		"sessionId": session.id.String(),
		"seeds":     len(req.Seeds),
	}))

	return session.id, nil
}

// Stop signals the active session and waits for the loop goroutine to
// exit. A round already in flight completes; only the next round is
// skipped. No-op when nothing is running.
func (w *TransferWorker) Stop() {
	w.mu.Lock()
	session := w.session
	if session == nil || session.stopped {
		w.mu.Unlock()
		return
	}
	session.stopped = true
	w.mu.Unlock()

	w.logger.Info().
		Str("session_id", session.id.String()).
		Msg("Stopping transfer loop")

	close(session.stopCh)
	<-session.doneCh

	w.mu.Lock()
	if w.session == session {
		w.session = nil
	}
	w.mu.Unlock()

	w.logger.Info().
		Str("session_id", session.id.String()).
		Msg("Transfer loop stopped")

	w.publishEvent(websocket.LoopStopped(map[string]interface{}{
		"sessionId": session.id.String(),
	}))
}

// IsRunning returns whether a session is currently active
func (w *TransferWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session != nil
}

// SessionID returns the id of the active session, or uuid.Nil
func (w *TransferWorker) SessionID() uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return uuid.Nil
	}
	return w.session.id
}

// run repeats full runs until the session's stop signal is observed.
// Rounds execute with a background context so that a round in flight is
// never aborted mid-way; the signal is checked between rounds only.
func (w *TransferWorker) run(session *loopSession) {
	defer close(session.doneCh)

	for round := 1; ; round++ {
		select {
		case <-session.stopCh:
			return
		default:
		}

		w.logger.Debug().
			Str("session_id", session.id.String()).
			Int("round", round).
			Msg("Starting transfer round")

		w.transferService.ProcessAll(context.Background(), session.request)
	}
}
