package notify

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Fanout delivers to every broadcaster and reports all their failures together
type Fanout []Broadcaster

// SendToUser implements Broadcaster
func (f Fanout) SendToUser(userID, event string, payload interface{}) error {
	var errs []error
	for _, b := range f {
		if b == nil {
			continue
		}
		if err := b.SendToUser(userID, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async delivers through a slow broadcaster in the background. Its failures are logged.
type Async struct {
	Broadcaster Broadcaster

	wg sync.WaitGroup
}

// SendToUser implements Broadcaster and always returns nil
func (a *Async) SendToUser(userID, event string, payload interface{}) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Broadcaster.SendToUser(userID, event, payload); err != nil {
			zap.S().Warnw("background delivery failed",
				"userId", userID,
				"event", event,
				"error", err)
		}
	}()
	return nil
}

// Wait blocks until every background delivery has returned
func (a *Async) Wait() {
	a.wg.Wait()
}
