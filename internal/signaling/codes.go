package signaling

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 4
)

// maxCodes is the size of the code space (26^4).
var maxCodes = func() int {
	n := 1
	for i := 0; i < codeLength; i++ {
		n *= len(codeAlphabet)
	}
	return n
}()

// CodeRegistry owns the set of live room codes. Allocation and release are
// safe for concurrent use; two concurrent Allocate calls never return the
// same code.
type CodeRegistry struct {
	mu   sync.Mutex
	live map[string]struct{}
}

func NewCodeRegistry() *CodeRegistry {
	return &CodeRegistry{live: make(map[string]struct{})}
}

// Allocate draws random 4-letter codes until one does not collide with a
// live code, registers it, and returns it. Fails only when the code space
// is exhausted.
func (r *CodeRegistry) Allocate() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.live) >= maxCodes {
		return "", ErrCodesExhausted
	}

	for {
		code := randomCode()
		if _, taken := r.live[code]; !taken {
			r.live[code] = struct{}{}
			return code, nil
		}
	}
}

// Release removes a code from the live set. Idempotent; releasing an
// unknown code is a no-op.
func (r *CodeRegistry) Release(code string) {
	r.mu.Lock()
	delete(r.live, code)
	r.mu.Unlock()
}

// Exists reports whether the code is currently live.
func (r *CodeRegistry) Exists(code string) bool {
	r.mu.Lock()
	_, ok := r.live[code]
	r.mu.Unlock()
	return ok
}

func randomCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[randomIndex(len(codeAlphabet))])
	}
	return b.String()
}

// randomIndex returns a cryptographically secure random index in [0, max).
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}
	return int(n.Int64())
}
