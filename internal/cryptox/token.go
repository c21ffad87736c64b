package cryptox

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"io"
	mrand "math/rand/v2"
	"sync"
	"time"
)

// TokenSource produces random opaque strings. Length counts output
// characters.
type TokenSource interface {
	Token(length int) string
}

// SecureSource reads from crypto/rand. If the system source fails it falls
// back to a ChaCha8 generator seeded from the clock, which is weaker but
// keeps sign-in working.
type SecureSource struct {
	reader io.Reader

	mu       sync.Mutex
	fallback *mrand.ChaCha8
}

func NewSecureSource() *SecureSource {
	return &SecureSource{reader: rand.Reader}
}

func (s *SecureSource) Token(length int) string {
	if length <= 0 {
		return ""
	}
	buf := make([]byte, (length+1)/2)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		s.fill(buf)
	}
	return hex.EncodeToString(buf)[:length]
}

// Fallback reports whether the weak generator has been used.
func (s *SecureSource) Fallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback != nil
}

func (s *SecureSource) fill(buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fallback == nil {
		var seed [32]byte
		binary.LittleEndian.PutUint64(seed[:], uint64(time.Now().UnixNano()))
		binary.LittleEndian.PutUint64(seed[8:], mrand.Uint64())
		s.fallback = mrand.NewChaCha8(seed)
	}
	_, _ = s.fallback.Read(buf)
}

// Default is the process-wide source used when none is injected.
var Default TokenSource = NewSecureSource()
