// Package fit estimates Bass diffusion parameters from observed cumulative
// adoption by nonlinear least squares. This file contains the progress
// reporting plumbing shared by every fitting method.
package fit

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ProgressUpdate is a progress notification sent by a running fit.
type ProgressUpdate struct {
	// FitterIndex identifies the fit when several methods run side by side.
	FitterIndex int
	// Value is the normalized progress, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter is the callback a fitting method uses to report progress.
type ProgressReporter func(progress float64)

// ProgressObserver receives progress events.
type ProgressObserver interface {
	Update(fitterIndex int, progress float64)
}

// ProgressSubject fans progress events out to its observers.
// It is safe for concurrent use.
type ProgressSubject struct {
	observers []ProgressObserver
	mu        sync.RWMutex
}

// NewProgressSubject creates a subject without observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{}
}

// Register adds an observer. Nil observers are ignored.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Notify forwards the update to every observer in registration order.
func (s *ProgressSubject) Notify(fitterIndex int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(fitterIndex, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// AsProgressReporter binds the subject to one fit index.
func (s *ProgressSubject) AsProgressReporter(fitterIndex int) ProgressReporter {
	return func(progress float64) {
		s.Notify(fitterIndex, progress)
	}
}

// ChannelObserver forwards progress to a channel without ever blocking the
// fit; updates are dropped when the channel is full.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver creates an observer writing to ch.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements ProgressObserver.
func (o *ChannelObserver) Update(fitterIndex int, progress float64) {
	if o.channel == nil {
		return
	}
	if progress > 1.0 {
		progress = 1.0
	}
	select {
	case o.channel <- ProgressUpdate{FitterIndex: fitterIndex, Value: progress}:
	default:
	}
}

// LoggingObserver writes a debug record each time a fit advances by at
// least threshold.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64
	lastLog   map[int]float64
	mu        sync.Mutex
}

// NewLoggingObserver creates a LoggingObserver. A non-positive threshold
// defaults to 10%.
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &LoggingObserver{
		logger:    logger,
		threshold: threshold,
		lastLog:   make(map[int]float64),
	}
}

// Update implements ProgressObserver.
func (o *LoggingObserver) Update(fitterIndex int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	last := o.lastLog[fitterIndex]
	if progress >= 1.0 || (last == 0 && progress > 0) || progress-last >= o.threshold {
		o.logger.Debug().
			Int("fitter", fitterIndex).
			Float64("progress", progress).
			Str("percent", fmt.Sprintf("%.1f%%", progress*100)).
			Msg("fit progress")
		o.lastLog[fitterIndex] = progress
	}
}
