package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// maxJobsPerTick bounds the work one Tick takes from the loop.
const maxJobsPerTick = 8

type result struct {
	body any
	err  error
}

// job is a closure run on the tick loop. reply is nil for fire-and-forget
// jobs.
type job struct {
	run   func() (any, error)
	reply chan result
}

// Tick runs queued requests on the calling goroutine. The network manager
// calls it on every loop tick while the device is not sleep-armed.
func (s *Server) Tick() {
	if s.ticking {
		return
	}
	s.ticking = true
	defer func() { s.ticking = false }()

	for range maxJobsPerTick {
		select {
		case j := <-s.queue:
			s.runJob(j)
		default:
			return
		}
	}
}

func (s *Server) runJob(j job) {
	var r result
	func() {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("panic recovered in API job", "error", p)
				r = result{err: fmt.Errorf("job panicked: %v", p)}
			}
		}()
		r.body, r.err = j.run()
	}()
	if j.reply != nil {
		j.reply <- r
	}
}

// enqueue hands j to the loop without blocking.
func (s *Server) enqueue(j job) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil, ErrUnavailable
	}
	select {
	case s.queue <- j:
		return s.done, nil
	default:
		return nil, ErrQueueFull
	}
}

// failQueued answers every queued request with ErrUnavailable.
func (s *Server) failQueued() {
	for {
		select {
		case j := <-s.queue:
			if j.reply != nil {
				j.reply <- result{err: ErrUnavailable}
			}
		default:
			return
		}
	}
}

// call runs fn on the loop and waits for its result, the request timeout,
// or the server stopping. A closure that has been queued still runs after
// a timeout.
func (s *Server) call(ctx context.Context, fn func() (any, error)) (any, error) {
	j := job{run: fn, reply: make(chan result, 1)}
	done, err := s.enqueue(j)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	select {
	case r := <-j.reply:
		return r.body, r.err
	case <-done:
		return nil, ErrUnavailable
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}

// post queues fn to run on the loop without waiting for it.
func (s *Server) post(fn func()) error {
	_, err := s.enqueue(job{run: func() (any, error) {
		fn()
		return nil, nil
	}})
	return err
}

// respond runs fn on the loop and writes its result with status, or the
// matching error response.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, fn func() (any, error)) {
	body, err := s.call(r.Context(), fn)
	s.writeResult(w, status, body, err)
}

func (s *Server) writeResult(w http.ResponseWriter, status int, body any, err error) {
	var re *requestError
	switch {
	case err == nil:
		if body == nil && status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, body)
	case errors.As(err, &re):
		writeError(w, re.status, re.code, re.message)
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrQueueFull):
		writeUnavailable(w, err.Error())
	default:
		s.logger.Error("API request failed", "error", err)
		writeInternalError(w, "internal server error")
	}
}
