package exec

import (
	"bytes"
	"sync"
)

// outputCapture is a goroutine-safe buffer; os/exec copies stdout and
// stderr from separate goroutines.
type outputCapture struct {
	buffer bytes.Buffer
	mu     sync.Mutex
}

func newOutputCapture() *outputCapture {
	return &outputCapture{}
}

func (oc *outputCapture) Write(p []byte) (int, error) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	//nolint:wrapcheck // bytes.Buffer never fails
	return oc.buffer.Write(p)
}

func (oc *outputCapture) String() string {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.buffer.String()
}
