// Package bus implements the per-cluster Message Bus & Ledger: an
// append-only, topic-indexed event log with total order and a synchronous
// publish/subscribe contract. It is modeled on the teacher's
// internal/orchestration/message package (an in-memory log with a pubsub
// broker for fan-out) but redesigned for gap-free sequence numbers, topic
// queries, and in-order synchronous callback delivery rather than
// best-effort broadcast.
package bus

import (
	"sync"
	"time"

	"github.com/zeroshot/zeroshot/internal/log"
)

// TopicClusterStop is the reserved topic the Supervisor's shutdown detector
// watches. Any agent action of kind stop_cluster publishes here.
const TopicClusterStop = "CLUSTER_STOP"

// Event is a single immutable entry in a cluster's ledger.
type Event struct {
	// Seq is the monotonically increasing, gap-free sequence number within
	// the cluster.
	Seq uint64

	// ClusterID identifies the cluster this event belongs to.
	ClusterID string

	// Topic is the event's topic string. Never empty.
	Topic string

	// Publisher is the agent id that published this event, or "orchestrator"
	// for Supervisor-originated events (e.g. the seed event).
	Publisher string

	// Payload is the opaque event body.
	Payload map[string]any

	// Timestamp is when the event was appended.
	Timestamp time.Time
}

// Publication describes a request to append a new event.
type Publication struct {
	Topic     string
	Publisher string
	Payload   map[string]any
}

// Query filters a ledger read. Zero values mean "no filter" for that field,
// except SinceSeq where 0 means "from the beginning."
type Query struct {
	Topic     string
	Publisher string
	SinceSeq  uint64
}

// Subscriber receives every future event matching its topic filter.
// Callbacks run on the publishing goroutine, outside the bus lock, so
// concurrent publishers or a callback that itself publishes can deliver
// events to one subscriber concurrently or out of sequence order; a
// subscriber that touches shared state must guard it itself.
type Subscriber func(Event)

// Unsubscribe removes a subscription previously registered with Subscribe.
// Safe to call more than once.
type Unsubscribe func()

// Mirror is an optional observability sink a Bus forwards every published
// event to, in sequence order. Mirrors must not block publish for long and
// must never be treated as a read path for live cluster state (see
// internal/ledgerstore).
type Mirror interface {
	Mirror(Event)
}

// Bus is the per-cluster message bus and ledger. The zero value is not
// usable; construct with New.
type Bus struct {
	clusterID string
	mirror    Mirror

	mu      sync.Mutex
	nextSeq uint64
	entries []Event
	subs    []subscription
	nextSub int
}

type subscription struct {
	id     int
	topic  string
	active bool
	cb     Subscriber
}

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithMirror attaches an observability mirror. Every event published after
// construction is forwarded to it in sequence order.
func WithMirror(m Mirror) Option {
	return func(b *Bus) { b.mirror = m }
}

// New creates an empty Bus scoped to clusterID.
func New(clusterID string, opts ...Option) *Bus {
	b := &Bus{clusterID: clusterID}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ClusterID returns the cluster this bus is scoped to.
func (b *Bus) ClusterID() string {
	return b.clusterID
}

// Publish assigns the next sequence number under the bus lock, appends the
// event, and synchronously notifies matching subscribers in subscription
// order before returning. The append itself (sequence assignment) is the
// only part serialized under the lock; subscriber callbacks run outside it
// so a callback may itself call Publish (e.g. a hook publishing a follow-up
// event) without deadlocking.
func (b *Bus) Publish(p Publication) uint64 {
	b.mu.Lock()
	seq := b.nextSeq
	b.nextSeq++
	evt := Event{
		Seq:       seq,
		ClusterID: b.clusterID,
		Topic:     p.Topic,
		Publisher: p.Publisher,
		Payload:   p.Payload,
		Timestamp: time.Now(),
	}
	b.entries = append(b.entries, evt)
	matching := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.active && (s.topic == "" || s.topic == p.Topic) {
			matching = append(matching, s)
		}
	}
	b.mu.Unlock()

	log.Debug(log.CatBus, "published", "cluster", b.clusterID, "topic", p.Topic, "seq", seq, "publisher", p.Publisher)

	if b.mirror != nil {
		b.mirror.Mirror(evt)
	}

	for _, s := range matching {
		s.cb(evt)
	}

	return seq
}

// Query returns all events matching q, in sequence order.
func (b *Bus) Query(q Query) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Event
	for _, e := range b.entries {
		if e.Seq < q.SinceSeq {
			continue
		}
		if q.Topic != "" && e.Topic != q.Topic {
			continue
		}
		if q.Publisher != "" && e.Publisher != q.Publisher {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Since returns every event with Seq > cursor, in order. This is the
// primary read path agents use to advance their trigger cursor.
func (b *Bus) Since(cursor uint64) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Event
	for _, e := range b.entries {
		if e.Seq > cursor {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the total number of events appended so far.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Subscribe registers cb to be called for every future event whose topic
// matches topicFilter (empty matches all topics). Returns a function that
// removes the subscription; safe to call multiple times.
func (b *Bus) Subscribe(topicFilter string, cb Subscriber) Unsubscribe {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs = append(b.subs, subscription{id: id, topic: topicFilter, active: true, cb: cb})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.subs {
			if b.subs[i].id == id {
				b.subs[i].active = false
				return
			}
		}
	}
}
