// Package notify delivers outbound webhooks for the events a household
// operator actually wants pushed: dead-lettered jobs, finalized
// shopping drafts, and newly critical expiry lots. Deliveries are
// signed with HMAC-SHA256 and retried with backoff.
package notify

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/pantryos/backend/internal/config"
	"github.com/pantryos/backend/internal/events"
)

// DefaultEvents are pushed when a target doesn't name its own set.
var DefaultEvents = []string{
	events.TypeJobDeadLetter,
	events.TypeDraftFinalized,
	events.TypeExpiryCritical,
}

const (
	queueSize   = 1000
	maxAttempts = 3
)

// Notifier fans bus events out to configured webhook targets through a
// worker pool.
type Notifier struct {
	targets    []target
	httpClient *http.Client
	queue      chan *delivery
	done       chan struct{}
	stop       sync.Once
	logger     *log.Logger
	wg         sync.WaitGroup
	cancelSub  func()
}

type target struct {
	url    string
	secret string
	events map[string]bool
}

type delivery struct {
	target  target
	payload []byte
	event   *events.Event
	attempt int
}

// New builds a notifier for the given targets and attaches it to the
// bus. Returns nil when no target is configured.
func New(bus *events.Bus, targets []config.WebhookTarget, workers int) *Notifier {
	if len(targets) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 4
	}

	n := &Notifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		queue:      make(chan *delivery, queueSize),
		done:       make(chan struct{}),
		logger:     log.New(log.Writer(), "[NOTIFY] ", log.LstdFlags),
	}
	for _, t := range targets {
		if t.URL == "" {
			continue
		}
		evs := t.Events
		if len(evs) == 0 {
			evs = DefaultEvents
		}
		set := make(map[string]bool, len(evs))
		for _, ev := range evs {
			set[ev] = true
		}
		n.targets = append(n.targets, target{url: t.URL, secret: t.Secret, events: set})
	}
	if len(n.targets) == 0 {
		return nil
	}

	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}

	ch, cancel := bus.Subscribe("")
	n.cancelSub = cancel
	go n.consume(ch)

	n.logger.Printf("📡 webhook notifier active: %d target(s)", len(n.targets))
	return n
}

func (n *Notifier) consume(ch <-chan *events.Event) {
	for event := range ch {
		payload, err := event.JSON()
		if err != nil {
			continue
		}
		for _, t := range n.targets {
			if !t.events[event.Type] {
				continue
			}
			select {
			case n.queue <- &delivery{target: t, payload: payload, event: event, attempt: 1}:
			default:
				n.logger.Printf("⚠️  queue full, dropping %s for %s", event.Type, t.url)
			}
		}
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case job := <-n.queue:
			n.deliver(job)
		}
	}
}

func (n *Notifier) deliver(job *delivery) {
	req, err := http.NewRequest(http.MethodPost, job.target.url, bytes.NewReader(job.payload))
	if err != nil {
		n.logger.Printf("❌ build request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pantry-Event-Type", job.event.Type)
	req.Header.Set("X-Pantry-Event-ID", job.event.ID)
	req.Header.Set("X-Pantry-Delivery-Attempt", fmt.Sprintf("%d", job.attempt))
	if job.target.secret != "" {
		req.Header.Set("X-Pantry-Signature", "sha256="+Sign(job.payload, job.target.secret))
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Printf("❌ delivery failed: %s → %v", job.target.url, err)
		n.retry(job)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		n.logger.Printf("⚠️  target returned %d: %s → %s", resp.StatusCode, job.target.url, job.event.Type)
		n.retry(job)
		return
	}
	n.logger.Printf("✅ delivered: %s → %s (%s)", job.event.Type, job.target.url, job.event.ID)
}

// retry requeues with quadratic backoff until maxAttempts. Shutdown
// cuts the backoff short and abandons the requeue; the queue itself is
// never closed, so a racing send cannot panic.
func (n *Notifier) retry(job *delivery) {
	if job.attempt >= maxAttempts {
		return
	}
	backoff := time.NewTimer(time.Duration(job.attempt*job.attempt) * time.Second)
	defer backoff.Stop()
	select {
	case <-n.done:
		return
	case <-backoff.C:
	}
	job.attempt++
	select {
	case <-n.done:
	case n.queue <- job:
	default:
		n.logger.Printf("⚠️  queue full, dropping retry %s for %s", job.event.Type, job.target.url)
	}
}

// Shutdown detaches from the bus, lets each worker finish its current
// delivery, and wakes any retry backoff. Safe to call more than once.
func (n *Notifier) Shutdown() {
	if n == nil {
		return
	}
	n.stop.Do(func() {
		if n.cancelSub != nil {
			n.cancelSub()
		}
		close(n.done)
	})
	n.wg.Wait()
}

// Sign computes the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
