package testutil

import (
	"context"
	"io"
	"sync"
)

// RecordedCall represents a recorded call to a message source
type RecordedCall struct {
	Method string // "Next" or "Close"
	Index  int
}

// MessageSource is a test implementation that replays scripted payloads and
// records every call. It returns io.EOF once the payloads are exhausted.
type MessageSource struct {
	mu              sync.Mutex
	payloads        [][]byte
	next            int
	calls           []RecordedCall
	failOnNextIndex int // -1 means no failure
	blockAtEnd      bool
}

// NewMessageSource creates a source that replays payloads in order
func NewMessageSource(payloads ...[]byte) *MessageSource {
	return &MessageSource{
		payloads:        payloads,
		calls:           make([]RecordedCall, 0),
		failOnNextIndex: -1,
	}
}

// SetFailOnNext makes the Next call with the given index fail
func (s *MessageSource) SetFailOnNext(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOnNextIndex = index
}

// SetBlockAtEnd makes Next wait for cancellation instead of returning io.EOF
func (s *MessageSource) SetBlockAtEnd(block bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockAtEnd = block
}

// Next records the call and returns the next payload
func (s *MessageSource) Next(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	index := 0
	for _, call := range s.calls {
		if call.Method == "Next" {
			index++
		}
	}
	s.calls = append(s.calls, RecordedCall{Method: "Next", Index: index})

	if s.failOnNextIndex == index {
		s.mu.Unlock()
		return nil, NewError("next", index)
	}

	if s.next >= len(s.payloads) {
		block := s.blockAtEnd
		s.mu.Unlock()
		if block {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return nil, io.EOF
	}

	// Copy payload so callers may keep it
	payload := make([]byte, len(s.payloads[s.next]))
	copy(payload, s.payloads[s.next])
	s.next++
	s.mu.Unlock()
	return payload, nil
}

// Close records a close call
func (s *MessageSource) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, RecordedCall{Method: "Close"})
	return nil
}

// Calls returns the recorded calls for inspection
func (s *MessageSource) Calls() []RecordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedCall(nil), s.calls...)
}

// CallCount returns the number of recorded calls
func (s *MessageSource) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
