// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package cipherchat

import (
	"sync"
	"time"
)

// StatusKind is the progress state of the currently reported operation.
type StatusKind string

const (
	StatusPending StatusKind = "pending"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the single user-visible transaction status slot. At most one
// status is shown at a time.
type Status struct {
	Visible bool
	Kind    StatusKind
	Message string
}

const (
	// DefaultSuccessClearDelay is how long a success status stays visible.
	DefaultSuccessClearDelay = 2 * time.Second
	// DefaultErrorClearDelay is how long an error status stays visible.
	DefaultErrorClearDelay = 3 * time.Second
)

// StatusChannel is a single-slot notification state machine. Set is
// last-writer-wins: it unconditionally replaces any existing status. Success
// and error statuses schedule their own clear; each Set stamps a generation
// counter and a scheduled clear applies only if the generation is unchanged,
// so a timer belonging to a replaced status is a no-op.
type StatusChannel struct {
	SuccessClearDelay time.Duration
	ErrorClearDelay   time.Duration

	mu      sync.Mutex
	gen     uint64
	current Status
	subs    []chan Status
}

func NewStatusChannel() *StatusChannel {
	return &StatusChannel{
		SuccessClearDelay: DefaultSuccessClearDelay,
		ErrorClearDelay:   DefaultErrorClearDelay,
	}
}

// Set replaces the current status. Success and error statuses are cleared
// automatically after the configured delay unless replaced sooner.
func (s *StatusChannel) Set(kind StatusKind, message string) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.current = Status{Visible: true, Kind: kind, Message: message}
	s.notifyLocked()

	var delay time.Duration
	switch kind {
	case StatusSuccess:
		delay = s.SuccessClearDelay
	case StatusError:
		delay = s.ErrorClearDelay
	}
	s.mu.Unlock()

	if delay > 0 {
		time.AfterFunc(delay, func() {
			s.clearGeneration(gen)
		})
	}
}

// Clear hides the current status immediately.
func (s *StatusChannel) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.current = Status{Kind: StatusPending}
	s.notifyLocked()
}

// Current returns a snapshot of the status slot.
func (s *StatusChannel) Current() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe returns a channel receiving every status transition. Slow
// subscribers drop intermediate transitions rather than blocking the
// orchestrator.
func (s *StatusChannel) Subscribe() <-chan Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Status, 16)
	s.subs = append(s.subs, ch)
	return ch
}

func (s *StatusChannel) clearGeneration(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// A newer status took the slot; this timer is stale.
		return
	}
	s.gen++
	s.current = Status{Kind: StatusPending}
	s.notifyLocked()
}

func (s *StatusChannel) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- s.current:
		default:
		}
	}
}
