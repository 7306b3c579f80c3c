package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ErrStableNodeIdentityUnavailable reports that neither machine-id nor
// hostname could provide a node identity.
var ErrStableNodeIdentityUnavailable = errors.New("uid: cannot determine stable node identity (machine-id/hostname unavailable)")

// ObjectIDGenerator produces 32-byte collision-resistant IDs rendered as
// 64-char hex strings. Layout: 6-byte millisecond timestamp, 6-byte node
// identity, 2-byte pid, 4-byte counter, 14 random bytes. Used for opaque
// refresh tokens, which must be unguessable and unique across nodes.
type ObjectIDGenerator struct {
	nodeID  [6]byte
	pid     uint16
	counter uint32
}

// NewObjectIDGenerator creates a generator bound to this node's identity.
func NewObjectIDGenerator() (*ObjectIDGenerator, error) {
	g := &ObjectIDGenerator{}
	g.pid = uint16(os.Getpid())

	src, err := g.nodeIdentity()
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(src))
	copy(g.nodeID[:], sum[:6])

	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, err
	}
	g.counter = uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])

	return g, nil
}

// nodeIdentity prefers /etc/machine-id, falls back to the hostname, and
// errors when neither yields a non-empty value.
func (g *ObjectIDGenerator) nodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}

	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}

	return "", ErrStableNodeIdentityUnavailable
}

// Generate returns a 64-char hex string representing 32 bytes.
func (g *ObjectIDGenerator) Generate() string {
	var raw [32]byte

	// 6-byte timestamp (ms, big-endian)
	ts := uint64(time.Now().UnixMilli())
	raw[0] = byte(ts >> 40)
	raw[1] = byte(ts >> 32)
	raw[2] = byte(ts >> 24)
	raw[3] = byte(ts >> 16)
	raw[4] = byte(ts >> 8)
	raw[5] = byte(ts)

	// 6-byte node id (stable)
	copy(raw[6:12], g.nodeID[:])

	// 2-byte pid (big-endian)
	raw[12] = byte(g.pid >> 8)
	raw[13] = byte(g.pid)

	// 4-byte counter
	c := atomic.AddUint32(&g.counter, 1)
	raw[14] = byte(c >> 24)
	raw[15] = byte(c >> 16)
	raw[16] = byte(c >> 8)
	raw[17] = byte(c)

	// 14 random bytes (best effort). If it fails, deterministic fallback.
	if _, err := rand.Read(raw[18:]); err != nil {
		var seed [18]byte
		copy(seed[0:6], raw[0:6])
		copy(seed[6:12], raw[6:12])
		copy(seed[12:14], raw[12:14])
		copy(seed[14:18], raw[14:18])

		sum := sha256.Sum256(seed[:])
		copy(raw[18:], sum[:14])
	}

	var hexBuf [64]byte
	hex.Encode(hexBuf[:], raw[:])
	return string(hexBuf[:])
}
