package signaling

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFormat(t *testing.T) {
	r := NewCodeRegistry()
	pattern := regexp.MustCompile(`^[A-Z]{4}$`)

	for i := 0; i < 50; i++ {
		code, err := r.Allocate()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestAllocateNeverCollides(t *testing.T) {
	r := NewCodeRegistry()
	seen := make(map[string]struct{})

	for i := 0; i < 500; i++ {
		code, err := r.Allocate()
		require.NoError(t, err)
		_, dup := seen[code]
		require.False(t, dup, "code %q allocated twice", code)
		seen[code] = struct{}{}
	}
}

func TestAllocateConcurrent(t *testing.T) {
	r := NewCodeRegistry()

	const workers = 8
	const perWorker = 50

	codes := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				code, err := r.Allocate()
				if err != nil {
					t.Error(err)
					return
				}
				codes <- code
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]struct{})
	for code := range codes {
		_, dup := seen[code]
		require.False(t, dup, "code %q allocated twice", code)
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestReleaseIdempotent(t *testing.T) {
	r := NewCodeRegistry()

	code, err := r.Allocate()
	require.NoError(t, err)
	assert.True(t, r.Exists(code))

	r.Release(code)
	assert.False(t, r.Exists(code))

	// Releasing again, or releasing a code that never existed, is a no-op.
	r.Release(code)
	r.Release("QQQQ")
}

func TestReleasedCodeCanBeReallocated(t *testing.T) {
	r := NewCodeRegistry()

	code, err := r.Allocate()
	require.NoError(t, err)
	r.Release(code)

	// With the space free again, allocation keeps working.
	_, err = r.Allocate()
	require.NoError(t, err)
}

func TestAllocateExhaustion(t *testing.T) {
	saved := maxCodes
	maxCodes = 3
	defer func() { maxCodes = saved }()

	r := NewCodeRegistry()
	for i := 0; i < 3; i++ {
		_, err := r.Allocate()
		require.NoError(t, err)
	}

	_, err := r.Allocate()
	assert.ErrorIs(t, err, ErrCodesExhausted)
}
