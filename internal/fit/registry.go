package fit

import (
	"fmt"
	"sort"
	"sync"
)

// Registry keys of the built-in methods.
const (
	MethodLM         = "lm"
	MethodNelderMead = "nelder-mead"
	MethodBFGS       = "bfgs"
	// MethodAll selects every registered method.
	MethodAll = "all"
)

// Factory resolves fitting methods by key.
type Factory interface {
	// Get returns the Fitter registered under name.
	Get(name string) (Fitter, error)
	// List returns the registered keys, sorted.
	List() []string
	// GetAll returns every registered Fitter keyed by name.
	GetAll() map[string]Fitter
}

// DefaultFactory is a thread-safe registry that builds each Fitter lazily
// and caches it.
type DefaultFactory struct {
	mu       sync.RWMutex
	creators map[string]func() coreFitter
	fitters  map[string]Fitter
}

// NewDefaultFactory returns a factory with "lm", "nelder-mead" and "bfgs"
// registered.
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{
		creators: make(map[string]func() coreFitter),
		fitters:  make(map[string]Fitter),
	}
	f.Register(MethodLM, func() coreFitter { return LevenbergMarquardt{} })
	f.Register(MethodNelderMead, NelderMead)
	f.Register(MethodBFGS, BFGS)
	return f
}

// Register adds or replaces a method. A replaced method is rebuilt on the
// next Get.
func (f *DefaultFactory) Register(name string, creator func() coreFitter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[name] = creator
	delete(f.fitters, name)
}

// Get returns the cached Fitter for name, building it on first use.
func (f *DefaultFactory) Get(name string) (Fitter, error) {
	f.mu.RLock()
	if ft, ok := f.fitters[name]; ok {
		f.mu.RUnlock()
		return ft, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if ft, ok := f.fitters[name]; ok {
		return ft, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, fmt.Errorf("unknown fit method: %s", name)
	}
	ft := NewFitter(creator())
	f.fitters[name] = ft
	return ft, nil
}

// Has reports whether name is registered.
func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.creators[name]
	return ok
}

// List returns the registered keys in alphabetical order.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll builds any missing Fitter and returns a copy of the registry.
func (f *DefaultFactory) GetAll() map[string]Fitter {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, creator := range f.creators {
		if _, ok := f.fitters[name]; !ok {
			f.fitters[name] = NewFitter(creator())
		}
	}
	out := make(map[string]Fitter, len(f.fitters))
	for name, ft := range f.fitters {
		out[name] = ft
	}
	return out
}

var globalFactory = NewDefaultFactory()

// GlobalFactory returns the process-wide factory.
func GlobalFactory() *DefaultFactory {
	return globalFactory
}

// NewTestFactory builds a factory around ready-made fitters. Intended for
// tests in other packages.
func NewTestFactory(fitters map[string]Fitter) Factory {
	return &staticFactory{fitters: fitters}
}

type staticFactory struct {
	fitters map[string]Fitter
}

func (s *staticFactory) Get(name string) (Fitter, error) {
	if ft, ok := s.fitters[name]; ok {
		return ft, nil
	}
	return nil, fmt.Errorf("unknown fit method: %s", name)
}

func (s *staticFactory) List() []string {
	names := make([]string, 0, len(s.fitters))
	for name := range s.fitters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *staticFactory) GetAll() map[string]Fitter {
	out := make(map[string]Fitter, len(s.fitters))
	for name, ft := range s.fitters {
		out[name] = ft
	}
	return out
}
