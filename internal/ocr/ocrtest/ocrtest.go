// Package ocrtest provides scripted OCR engines for tests.
package ocrtest

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/red-numbers/internal/ocr"
)

// ErrClosed is returned by Recognize after Close.
var ErrClosed = errors.New("ocrtest: engine closed")

// Response is one scripted recognition result.
type Response struct {
	Text string
	Err  error
}

// Call records one Recognize invocation.
type Call struct {
	Mode ocr.Mode
	Size image.Point
}

// RespondFunc computes the answer for one recognition request.
type RespondFunc func(img image.Image, mode ocr.Mode) (string, error)

// Engine is an ocr.Engine whose answers come from a RespondFunc.
type Engine struct {
	respond RespondFunc

	mu     sync.Mutex
	calls  []Call
	closed bool
}

// New returns an Engine answering with respond. A nil respond always
// recognizes nothing.
func New(respond RespondFunc) *Engine {
	if respond == nil {
		respond = func(image.Image, ocr.Mode) (string, error) { return "", nil }
	}
	return &Engine{respond: respond}
}

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(img image.Image, mode ocr.Mode) (string, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrClosed
	}
	e.calls = append(e.calls, Call{Mode: mode, Size: img.Bounds().Size()})
	e.mu.Unlock()
	return e.respond(img, mode)
}

// Close implements ocr.Engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Calls returns the recorded invocations in order.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Script answers each mode from its own queue, in order. Once a queue is
// exhausted the mode recognizes nothing.
func Script(queues map[ocr.Mode][]Response) RespondFunc {
	var mu sync.Mutex
	next := make(map[ocr.Mode]int)
	return func(_ image.Image, mode ocr.Mode) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		q := queues[mode]
		i := next[mode]
		if i >= len(q) {
			return "", nil
		}
		next[mode] = i + 1
		return q[i].Text, q[i].Err
	}
}

// Tracker counts the engines created by a Factory and how many were closed.
type Tracker struct {
	created atomic.Int32
	mu      sync.Mutex
	engines []*Engine
}

// Factory returns an ocr.Factory whose engines all answer with respond.
func (t *Tracker) Factory(respond RespondFunc) ocr.Factory {
	return func() (ocr.Engine, error) {
		e := New(respond)
		t.created.Add(1)
		t.mu.Lock()
		t.engines = append(t.engines, e)
		t.mu.Unlock()
		return e, nil
	}
}

// Created returns the number of engines handed out.
func (t *Tracker) Created() int {
	return int(t.created.Load())
}

// AllClosed reports whether every engine handed out has been closed.
func (t *Tracker) AllClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.engines {
		if !e.Closed() {
			return false
		}
	}
	return true
}

// FailingFactory returns an ocr.Factory that always fails with err.
func FailingFactory(err error) ocr.Factory {
	return func() (ocr.Engine, error) {
		return nil, err
	}
}
