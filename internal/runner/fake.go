package runner

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation seen by Fake.
type Call struct {
	Name string
	Args []string
}

// Fake answers commands from a handler and records every call.
type Fake struct {
	Handler func(name string, args []string) (stdout, stderr []byte, err error)

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	f.mu.Unlock()
	if f.Handler == nil {
		return nil, nil, nil
	}
	return f.Handler(name, args)
}

// Calls returns the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many times name was invoked.
func (f *Fake) Count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Name == name {
			n++
		}
	}
	return n
}

func (c Call) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}
