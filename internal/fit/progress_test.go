package fit

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type recordingObserver struct {
	mu      sync.Mutex
	updates []ProgressUpdate
}

func (r *recordingObserver) Update(idx int, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, ProgressUpdate{FitterIndex: idx, Value: v})
}

func TestProgressSubject(t *testing.T) {
	t.Parallel()
	subject := NewProgressSubject()
	subject.Register(nil)
	if subject.ObserverCount() != 0 {
		t.Fatal("nil observers should be ignored")
	}

	a, b := &recordingObserver{}, &recordingObserver{}
	subject.Register(a)
	subject.Register(b)
	subject.AsProgressReporter(2)(0.25)

	for _, o := range []*recordingObserver{a, b} {
		if len(o.updates) != 1 || o.updates[0] != (ProgressUpdate{FitterIndex: 2, Value: 0.25}) {
			t.Errorf("observer got %v", o.updates)
		}
	}
}

func TestChannelObserverNeverBlocks(t *testing.T) {
	t.Parallel()
	ch := make(chan ProgressUpdate, 1)
	o := NewChannelObserver(ch)
	o.Update(0, 0.5)
	o.Update(0, 0.6) // dropped
	o.Update(0, 1.5)
	if got := <-ch; got.Value != 0.5 {
		t.Errorf("got %v, want 0.5", got.Value)
	}

	o.Update(1, 1.5)
	if got := <-ch; got.Value != 1.0 {
		t.Errorf("progress should be clamped to 1.0, got %v", got.Value)
	}
	NewChannelObserver(nil).Update(0, 0.1)
}

func TestLoggingObserverThreshold(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	o := NewLoggingObserver(logger, 0.5)

	for _, v := range []float64{0.1, 0.2, 0.3, 0.7, 1.0} {
		o.Update(0, v)
	}
	if got := strings.Count(buf.String(), "fit progress"); got != 3 {
		t.Errorf("logged %d records, want 3 (first, crossing, final):\n%s", got, buf.String())
	}
}
