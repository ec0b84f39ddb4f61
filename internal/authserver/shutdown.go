package authserver

import (
	"sync"

	"github.com/desertthunder/deskhost/internal/shared"
)

type shutdownSignal struct {
	mu           sync.Mutex
	done         chan struct{}
	fired        bool
	receiverGone bool
}

// ShutdownSender is the write side of a one-shot shutdown signal.
type ShutdownSender struct{ s *shutdownSignal }

// ShutdownReceiver is the read side of a one-shot shutdown signal.
type ShutdownReceiver struct{ s *shutdownSignal }

// NewShutdown returns a connected sender and receiver.
func NewShutdown() (*ShutdownSender, *ShutdownReceiver) {
	s := &shutdownSignal{done: make(chan struct{})}
	return &ShutdownSender{s: s}, &ShutdownReceiver{s: s}
}

// Send signals the receiver. It never blocks.
//
// Fails with [shared.ErrSignalFailed] when the receiver has been closed or the signal already fired.
func (tx *ShutdownSender) Send() error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()

	if tx.s.receiverGone || tx.s.fired {
		return shared.ErrSignalFailed
	}
	tx.s.fired = true
	close(tx.s.done)
	return nil
}

// Drop releases the sender without an explicit send. The receiver observes it like a signal.
func (tx *ShutdownSender) Drop() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()

	if !tx.s.fired {
		tx.s.fired = true
		close(tx.s.done)
	}
}

// Done is closed when the sender sends or is dropped.
func (rx *ShutdownReceiver) Done() <-chan struct{} {
	return rx.s.done
}

// Close marks the receiver gone. Later sends fail.
func (rx *ShutdownReceiver) Close() {
	rx.s.mu.Lock()
	rx.s.receiverGone = true
	rx.s.mu.Unlock()
}
