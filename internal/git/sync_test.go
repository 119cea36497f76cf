package git

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/jayteealao/gitsync/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor records invocations and returns canned results.
type fakeExecutor struct {
	mu     sync.Mutex
	calls  []fakeCall
	output string
	err    error
}

type fakeCall struct {
	dir        string
	invocation string
}

func (f *fakeExecutor) Exec(ctx context.Context, dir, invocation string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{dir: dir, invocation: invocation})
	return f.output, f.err
}

func (f *fakeExecutor) invocations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.invocation
	}
	return out
}

func TestInvocation(t *testing.T) {
	tests := []struct {
		name     string
		op       Operation
		opts     Options
		expected string
	}{
		{"push without options", Push, Options{}, "git push"},
		{"push with branch", Push, Options{Branch: "master"}, "git push origin master"},
		{"push with branch and remote", Push, Options{Branch: "master", Remote: "alt"}, "git push alt master"},
		{"push with force", Push, Options{Force: true}, "git push --force"},
		{"push with all options", Push, Options{Branch: "master", Remote: "alt", Force: true}, "git push --force alt master"},
		{"push with remote only", Push, Options{Remote: "alt"}, "git push"},
		{"push with force and remote only", Push, Options{Remote: "alt", Force: true}, "git push --force"},
		{"pull without options", Pull, Options{}, "git pull"},
		{"pull with branch", Pull, Options{Branch: "master"}, "git pull origin master"},
		{"pull with branch and remote", Pull, Options{Branch: "master", Remote: "alt"}, "git pull alt master"},
		{"pull with remote only", Pull, Options{Remote: "alt"}, "git pull"},
		{"pull ignores force", Pull, Options{Branch: "master", Force: true}, "git pull origin master"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Invocation(tt.op, tt.opts))
		})
	}
}

func TestInvocation_IsDeterministic(t *testing.T) {
	opts := Options{Branch: "feature/x", Remote: "upstream", Force: true}
	first := Invocation(Push, opts)
	second := Invocation(Push, opts)
	assert.Equal(t, first, second)
	assert.Equal(t, Options{Branch: "feature/x", Remote: "upstream", Force: true}, opts, "options must not be modified")
}

func TestArgs(t *testing.T) {
	t.Run("no arguments", func(t *testing.T) {
		assert.Empty(t, Args(Push, Options{}))
	})

	t.Run("force precedes remote and branch", func(t *testing.T) {
		assert.Equal(t, []string{"--force", "alt", "dev"}, Args(Push, Options{Branch: "dev", Remote: "alt", Force: true}))
	})

	t.Run("names are passed through as-is", func(t *testing.T) {
		assert.Equal(t, []string{"origin", "weird name"}, Args(Pull, Options{Branch: "weird name"}))
	})
}

func TestOperation_Valid(t *testing.T) {
	assert.True(t, Push.Valid())
	assert.True(t, Pull.Valid())
	assert.False(t, Operation("fetch").Valid())
	assert.False(t, Operation("").Valid())
	assert.Equal(t, "push", Push.String())
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stdout unmodified", func(t *testing.T) {
		fake := &fakeExecutor{output: "  Already up to date.\n\n"}
		runner := NewRunner(WithExecutor(fake))

		out, err := runner.Pull(ctx, Options{})
		require.NoError(t, err)
		assert.Equal(t, "  Already up to date.\n\n", out)
		assert.Equal(t, []string{"git pull"}, fake.invocations())
	})

	t.Run("returns the executor error unmodified", func(t *testing.T) {
		procErr := stderrors.New("exit status 1")
		fake := &fakeExecutor{output: "ignored", err: procErr}
		runner := NewRunner(WithExecutor(fake))

		out, err := runner.Push(ctx, Options{Branch: "master"})
		assert.Same(t, procErr, err)
		assert.Empty(t, out)
		assert.Equal(t, []string{"git push origin master"}, fake.invocations())
	})

	t.Run("runs in the configured directory", func(t *testing.T) {
		fake := &fakeExecutor{}
		runner := NewRunner(WithExecutor(fake), WithDir("/srv/repo"))

		_, err := runner.Push(ctx, Options{Force: true})
		require.NoError(t, err)
		require.Len(t, fake.calls, 1)
		assert.Equal(t, "/srv/repo", fake.calls[0].dir)
		assert.Equal(t, "/srv/repo", runner.Dir())
	})

	t.Run("empty directory means current directory", func(t *testing.T) {
		fake := &fakeExecutor{}
		runner := NewRunner(WithExecutor(fake))

		_, err := runner.Pull(ctx, Options{})
		require.NoError(t, err)
		assert.Equal(t, "", fake.calls[0].dir)
	})

	t.Run("unknown operation spawns nothing", func(t *testing.T) {
		fake := &fakeExecutor{}
		runner := NewRunner(WithExecutor(fake))

		_, err := runner.Run(ctx, Operation("fetch"), Options{})
		assert.ErrorIs(t, err, errors.ErrUnknownOperation)
		assert.Empty(t, fake.calls)
	})

	t.Run("one process per call", func(t *testing.T) {
		fake := &fakeExecutor{}
		runner := NewRunner(WithExecutor(fake))

		_, _ = runner.Push(ctx, Options{})
		_, _ = runner.Push(ctx, Options{})
		assert.Equal(t, []string{"git push", "git push"}, fake.invocations())
	})

	t.Run("nil logger keeps the default", func(t *testing.T) {
		fake := &fakeExecutor{}
		runner := NewRunner(WithExecutor(fake), WithLogger(nil))
		assert.NotPanics(t, func() {
			_, _ = runner.Pull(ctx, Options{})
		})
	})
}

func TestRunner_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers exactly one success", func(t *testing.T) {
		fake := &fakeExecutor{output: "ok\n"}
		runner := NewRunner(WithExecutor(fake))

		ch := runner.Start(ctx, Push, Options{Branch: "main"})

		select {
		case res, ok := <-ch:
			require.True(t, ok)
			assert.Equal(t, "ok\n", res.Output)
			assert.NoError(t, res.Err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for result")
		}

		_, ok := <-ch
		assert.False(t, ok, "channel should be closed after the single result")
	})

	t.Run("delivers exactly one failure", func(t *testing.T) {
		procErr := stderrors.New("exit status 128")
		fake := &fakeExecutor{err: procErr}
		runner := NewRunner(WithExecutor(fake))

		var results []Result
		for res := range runner.Start(ctx, Pull, Options{}) {
			results = append(results, res)
		}

		require.Len(t, results, 1)
		assert.Same(t, procErr, results[0].Err)
		assert.Empty(t, results[0].Output)
	})

	t.Run("concurrent calls are independent", func(t *testing.T) {
		fake := &fakeExecutor{output: "done"}
		runner := NewRunner(WithExecutor(fake))

		chans := make([]<-chan Result, 10)
		for i := range chans {
			chans[i] = runner.Start(ctx, Push, Options{})
		}
		for _, ch := range chans {
			res := <-ch
			assert.Equal(t, "done", res.Output)
		}
		assert.Len(t, fake.invocations(), 10)
	})
}
