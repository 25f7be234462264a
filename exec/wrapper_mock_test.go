package exec_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dilijev/git-clone-cache/exec"
	"github.com/dilijev/git-clone-cache/exec/mocks"
)

func TestWrapperWithMock(t *testing.T) {
	mockExec := &mocks.ExecutorMock{
		RunFunc: func(call mocks.Call) (*exec.Result, error) {
			return &exec.Result{Stdout: "mock output"}, nil
		},
	}

	wrapper := exec.NewWrapper(mockExec, "git")
	ctx := context.Background()

	result, err := wrapper.
		WithDir("/test/dir").
		WithContext(ctx).
		WithStdin(strings.NewReader("{}")).
		Run("remote")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stdout != "mock output" {
		t.Errorf("unexpected stdout: %q", result.Stdout)
	}

	calls := mockExec.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	call := calls[0]
	if strings.Join(call.Args, " ") != "git remote" {
		t.Errorf("expected wrapper to prepend binary, got: %v", call.Args)
	}
	if call.Dir != "/test/dir" {
		t.Errorf("expected dir=/test/dir, got: %s", call.Dir)
	}
	if call.Stdin != "{}" {
		t.Errorf("expected stdin to be recorded, got: %q", call.Stdin)
	}
	if call.Ctx != ctx {
		t.Error("expected context to be passed through")
	}
}
