// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

var DefaultFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner draws a single-line progress indicator. With a delay, nothing is
// drawn unless the spinner is still running once the delay has passed, so
// fast operations leave no trace on the terminal.
type Spinner struct {
	out        io.Writer
	frames     []string
	interval   time.Duration
	delay      time.Duration
	hideCursor bool
	color      Colorizer
	frameAttrs []color.Attribute

	mu      sync.Mutex
	msg     string
	idx     int
	running bool
	shown   bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

type SpinnerOption func(*Spinner)

func WithFrames(frames []string) SpinnerOption {
	return func(s *Spinner) {
		if len(frames) > 0 {
			s.frames = frames
		}
	}
}

func WithInterval(d time.Duration) SpinnerOption {
	return func(s *Spinner) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDelay postpones the first frame.
func WithDelay(d time.Duration) SpinnerOption {
	return func(s *Spinner) {
		if d >= 0 {
			s.delay = d
		}
	}
}

func WithHideCursor(hide bool) SpinnerOption {
	return func(s *Spinner) {
		s.hideCursor = hide
	}
}

func WithColor(colorizer Colorizer, attrs ...color.Attribute) SpinnerOption {
	return func(s *Spinner) {
		s.color = colorizer
		s.frameAttrs = attrs
	}
}

func NewSpinner(out io.Writer, opts ...SpinnerOption) *Spinner {
	s := &Spinner{
		out:      out,
		frames:   DefaultFrames,
		interval: 120 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Spinner) Start(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.msg = msg
		return
	}
	s.running = true
	s.shown = false
	s.idx = 0
	s.msg = msg
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.loop(s.stopCh, s.doneCh)
}

func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
	if s.running && s.shown {
		s.renderLocked()
	}
}

// Stop halts the spinner. If a frame was drawn, the line is cleared or
// terminated with a newline depending on clear.
func (s *Spinner) Stop(clear bool) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.shown {
		return
	}
	if clear {
		fmt.Fprint(s.out, "\r\033[K")
	} else {
		fmt.Fprintln(s.out)
	}
	if s.hideCursor {
		fmt.Fprint(s.out, "\x1b[?25h")
	}
}

// Track runs fn with the spinner showing msg.
func (s *Spinner) Track(msg string, fn func() error) error {
	s.Start(msg)
	defer s.Stop(true)
	return fn()
}

func (s *Spinner) loop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-stopCh:
			timer.Stop()
			return
		}
	}
	s.show()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-stopCh:
			return
		}
	}
}

func (s *Spinner) show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.shown = true
	if s.hideCursor {
		fmt.Fprint(s.out, "\x1b[?25l")
	}
	s.renderLocked()
}

func (s *Spinner) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || len(s.frames) == 0 {
		return
	}
	s.idx = (s.idx + 1) % len(s.frames)
	s.renderLocked()
}

func (s *Spinner) renderLocked() {
	if len(s.frames) == 0 {
		return
	}
	line := s.color.Wrap(s.frames[s.idx%len(s.frames)], s.frameAttrs...)
	if s.msg != "" {
		line = line + " " + s.msg
	}
	fmt.Fprintf(s.out, "\r\033[K%s", line)
}
