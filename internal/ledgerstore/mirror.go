package ledgerstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeroshot/zeroshot/internal/bus"
	"github.com/zeroshot/zeroshot/internal/log"
)

var _ bus.Mirror = (*Store)(nil)

// mirrorQueueSize bounds how many events Store buffers before Mirror
// starts dropping them rather than blocking the publisher.
const mirrorQueueSize = 256

// Store is a bus.Mirror that asynchronously persists every event to
// sqlite. Mirror itself never blocks on the database: it hands the event
// to a buffered channel drained by a single background writer goroutine,
// and drops the event (logging at debug level) if that buffer is full.
type Store struct {
	conn   *sql.DB
	events chan bus.Event
	done   chan struct{}
	closed chan struct{}
}

func newStore(conn *sql.DB) *Store {
	s := &Store{
		conn:   conn,
		events: make(chan bus.Event, mirrorQueueSize),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go s.loop()
	return s
}

// Mirror implements bus.Mirror.
func (s *Store) Mirror(evt bus.Event) {
	select {
	case s.events <- evt:
	default:
		log.Debug(log.CatLedger, "dropping event, mirror queue full", "cluster", evt.ClusterID, "seq", evt.Seq)
	}
}

// Close stops the background writer once its buffered events drain.
// Safe to call once; does not close the underlying *DB.
func (s *Store) Close() {
	close(s.done)
	<-s.closed
}

func (s *Store) loop() {
	defer close(s.closed)
	for {
		select {
		case evt := <-s.events:
			s.write(evt)
		case <-s.done:
			for {
				select {
				case evt := <-s.events:
					s.write(evt)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) write(evt bus.Event) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		log.Debug(log.CatLedger, "marshal payload failed", "cluster", evt.ClusterID, "seq", evt.Seq, "err", err)
		payload = []byte("{}")
	}
	_, err = s.conn.Exec(
		`INSERT OR IGNORE INTO ledger_events (cluster_id, seq, topic, publisher, payload, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		evt.ClusterID, evt.Seq, evt.Topic, evt.Publisher, string(payload), evt.Timestamp.Unix(),
	)
	if err != nil {
		log.Debug(log.CatLedger, "write event failed", "cluster", evt.ClusterID, "seq", evt.Seq, "err", err)
	}
}

// Events returns every mirrored event for clusterID in sequence order.
// Intended for post-hoc inspection (e.g. a CLI command); never used to
// reconstruct live cluster state.
func (s *Store) Events(clusterID string) ([]bus.Event, error) {
	rows, err := s.conn.Query(
		`SELECT seq, topic, publisher, payload, recorded_at FROM ledger_events
		 WHERE cluster_id = ? ORDER BY seq ASC`,
		clusterID,
	)
	if err != nil {
		return nil, fmt.Errorf("ledgerstore: query events for %s: %w", clusterID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []bus.Event
	for rows.Next() {
		var (
			evt        bus.Event
			payload    string
			recordedAt int64
		)
		if err := rows.Scan(&evt.Seq, &evt.Topic, &evt.Publisher, &payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("ledgerstore: scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &evt.Payload); err != nil {
			return nil, fmt.Errorf("ledgerstore: unmarshal payload: %w", err)
		}
		evt.ClusterID = clusterID
		evt.Timestamp = time.Unix(recordedAt, 0)
		out = append(out, evt)
	}
	return out, rows.Err()
}
