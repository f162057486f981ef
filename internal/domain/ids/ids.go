// Package ids generates opaque record identifiers.
package ids

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generator yields ids of the form <unix-millis>-<counter>-<random>. The counter
// makes ids unique within a process; the random suffix across processes. Ids
// carry no ordering meaning.
type Generator struct {
	counter atomic.Uint64
	now     func() time.Time
}

// New returns a Generator using the wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock returns a Generator reading time from now.
func NewWithClock(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Next returns a fresh id.
func (g *Generator) Next() string {
	n := g.counter.Add(1)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%d-%s", g.now().UnixMilli(), n, suffix)
}
