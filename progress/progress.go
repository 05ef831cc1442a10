// Package progress implements the channel-based progress fan-out described
// for the Scanner and Duplicate Detector. It replaces the source's
// callback-passed-into-workers idiom: workers publish updates into a Hub,
// and the Hub owns the subscriber set and delivers to each subscriber's own
// bounded channel, applying a drop-oldest policy so a slow subscriber never
// blocks a worker. This generalizes the checked-in UploadProgress contract
// (lifecycle + counters, NullProgress, CountingProgress) to cover both the
// Scanner and the Duplicate Detector, which share the same
// phase/count/bytes/path shape.
package progress

import "sync"

// Phase identifies where in its lifecycle a long-running operation is.
type Phase string

// Phases reported by the Scanner and Duplicate Detector.
const (
	PhaseInitializing Phase = "initializing"
	PhaseScanning     Phase = "scanning"
	PhaseHashing      Phase = "hashing"
	PhaseCompleted    Phase = "completed"
)

// Update is one progress sample.
type Update struct {
	Phase       Phase
	FilesSeen   int64
	BytesSeen   int64
	CurrentPath string
	DirsVisited int64
}

// Reporter is implemented by anything that wants to receive progress
// updates. Producers call Report from any goroutine; implementations must
// be safe for concurrent use.
type Reporter interface {
	Report(u Update)
}

// NullReporter discards every update.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Update) {}

var _ Reporter = NullReporter{}

// Hub fans a single producer stream out to any number of subscribers. Each
// subscriber gets its own bounded channel; if a subscriber falls behind,
// the oldest buffered update is dropped to make room rather than blocking
// the producer.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Update
	next int
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Update)}
}

// Subscribe registers a new subscriber with the given buffer size and
// returns its channel and an id to pass to Unsubscribe.
func (h *Hub) Subscribe(buffer int) (ch <-chan Update, id int) {
	if buffer <= 0 {
		buffer = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c := make(chan Update, buffer)
	id = h.next
	h.next++
	h.subs[id] = c

	return c, id
}

// Unsubscribe removes and closes a subscriber's channel.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(c)
	}
}

// Report implements Reporter by broadcasting u to every current subscriber.
func (h *Hub) Report(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.subs {
		select {
		case c <- u:
		default:
			// drop-oldest: make room for the latest sample rather than
			// blocking the producer on a slow subscriber.
			select {
			case <-c:
			default:
			}

			select {
			case c <- u:
			default:
			}
		}
	}
}

var _ Reporter = (*Hub)(nil)
