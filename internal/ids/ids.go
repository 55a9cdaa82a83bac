// Package ids provides the injectable clock and identifier generator the
// engine stamps onto every entity. Tests swap in frozen clocks and
// sequential generators for determinism.
package ids

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind prefixes an identifier with the entity it names.
type Kind string

const (
	Receipt        Kind = "receipt"
	Job            Kind = "job"
	Lot            Kind = "lot"
	Event          Kind = "event"
	Recommendation Kind = "rec"
	Run            Kind = "run"
	Feedback       Kind = "feedback"
	Checkin        Kind = "checkin"
	Draft          Kind = "draft"
	DraftItem      Kind = "draft_item"
)

// Clock abstracts time for the engine.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// FrozenClock is a manually advanced clock for tests.
type FrozenClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFrozenClock returns a clock pinned at t.
func NewFrozenClock(t time.Time) *FrozenClock {
	return &FrozenClock{now: t.UTC()}
}

func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FrozenClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock at t.
func (c *FrozenClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

// Generator mints prefixed identifiers.
type Generator interface {
	NewID(kind Kind) string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID(kind Kind) string {
	return fmt.Sprintf("%s_%s", kind, uuid.NewString())
}

// UUIDGenerator returns the production generator (kind-prefixed UUIDv4).
func UUIDGenerator() Generator { return uuidGenerator{} }

// SeqGenerator mints deterministic ids like lot_000001 for tests.
type SeqGenerator struct {
	mu     sync.Mutex
	counts map[Kind]int
}

// NewSeqGenerator returns a fresh sequential generator.
func NewSeqGenerator() *SeqGenerator {
	return &SeqGenerator{counts: make(map[Kind]int)}
}

func (g *SeqGenerator) NewID(kind Kind) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counts[kind]++
	return fmt.Sprintf("%s_%06d", kind, g.counts[kind])
}
