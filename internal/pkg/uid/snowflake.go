package uid

import (
	"crypto/sha256"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-sortable int64 identifiers.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a snowflake generator whose node number is derived from
// a stable machine identity so replicas do not collide.
func NewSnowflake() (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeNumber())
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new int64 identifier.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func nodeNumber() int64 {
	src := ""
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		src = strings.TrimSpace(string(b))
	}
	if src == "" {
		if h, err := os.Hostname(); err == nil {
			src = strings.TrimSpace(h)
		}
	}
	if src == "" {
		return 0
	}

	sum := sha256.Sum256([]byte(src))
	// snowflake node numbers are 10 bits
	return int64(uint16(sum[0])<<8|uint16(sum[1])) % 1024
}
