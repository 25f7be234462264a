// Package mocks provides a test double for exec.Executor.
package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/dilijev/git-clone-cache/exec"
)

// Call records one Run invocation together with the per-run settings that
// were in effect.
type Call struct {
	Args  []string
	Dir   string
	Env   map[string]string
	Stdin string
	Ctx   context.Context
}

// ExecutorMock is a scriptable exec.Executor. RunFunc receives the recorded
// call and decides the outcome; a nil RunFunc succeeds with empty output.
type ExecutorMock struct {
	RunFunc func(call Call) (*exec.Result, error)

	mu      sync.Mutex
	calls   []Call
	pending Call
}

var _ exec.Executor = (*ExecutorMock)(nil)

func (m *ExecutorMock) WithEnv(env map[string]string) exec.Executor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending.Env == nil {
		m.pending.Env = make(map[string]string)
	}
	for k, v := range env {
		m.pending.Env[k] = v
	}
	return m
}

func (m *ExecutorMock) WithDir(dir string) exec.Executor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Dir = dir
	return m
}

func (m *ExecutorMock) WithContext(ctx context.Context) exec.Executor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Ctx = ctx
	return m
}

func (m *ExecutorMock) WithStdin(r io.Reader) exec.Executor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r != nil {
		data, _ := io.ReadAll(r)
		m.pending.Stdin = string(data)
	}
	return m
}

func (m *ExecutorMock) Run(args ...string) (*exec.Result, error) {
	m.mu.Lock()
	call := m.pending
	call.Args = append([]string(nil), args...)
	m.calls = append(m.calls, call)
	m.pending = Call{}
	m.mu.Unlock()

	if m.RunFunc == nil {
		return &exec.Result{}, nil
	}
	return m.RunFunc(call)
}

func (m *ExecutorMock) Clone() exec.Executor {
	return m
}

// Calls returns the recorded invocations in order.
func (m *ExecutorMock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
