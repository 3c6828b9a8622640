package ballot

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status describes where a deliberation session stands in its lifecycle.
// A session starts in_progress and ends in exactly one terminal state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusConverged  Status = "converged"
	StatusMaxRounds  Status = "max_rounds_exhausted"
	StatusAllFailed  Status = "all_failed"
)

// TranscriptEntry is one event in the session's chronological log: a
// persona casting a vote, the aggregator announcing a round verdict, and
// so on. Actor names who acted, Action is a stable machine-readable tag;
// each entry carries its own UUIDv7 id.
type TranscriptEntry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the mutable record of a single deliberation. It accumulates
// rounds, transcript entries, and eventually a terminal status and final
// verdict. All methods are safe for concurrent use, and accessors return
// defensive copies so completed history cannot be altered by callers.
type Session struct {
	id       string
	topic    string
	personas []string

	mu         sync.RWMutex
	rounds     []Round
	transcript []TranscriptEntry
	status     Status
	verdict    *Verdict
}

// NewSession creates a session for the given topic and panel.
// The session is assigned a unique UUIDv7 identifier and starts in
// StatusInProgress.
func NewSession(topic string, personas []string) *Session {
	return &Session{
		id:       uuid.Must(uuid.NewV7()).String(),
		topic:    topic,
		personas: slices.Clone(personas),
		status:   StatusInProgress,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Topic() string {
	return s.topic
}

// Personas returns the names of the panel members, in panel order.
func (s *Session) Personas() []string {
	return slices.Clone(s.personas)
}

// AppendRound records a completed round. Rounds are append-only; a round
// added here is never modified or removed.
func (s *Session) AppendRound(r Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, r.Clone())
}

// Rounds returns deep copies of all recorded rounds in order.
func (s *Session) Rounds() []Round {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]Round, len(s.rounds))
	for i, r := range s.rounds {
		copied[i] = r.Clone()
	}
	return copied
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Verdict returns a copy of the final verdict, or nil if the session has
// not produced one.
func (s *Session) Verdict() *Verdict {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.verdict == nil {
		return nil
	}
	v := s.verdict.Clone()
	return &v
}

func (s *Session) SetVerdict(v Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := v.Clone()
	s.verdict = &cloned
}

// Log appends a transcript entry stamped with the current UTC time.
func (s *Session) Log(actor, action, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, TranscriptEntry{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Actor:     actor,
		Action:    action,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// Transcript returns a copy of the chronological event log.
func (s *Session) Transcript() []TranscriptEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transcript)
}

// Snapshot is a point-in-time serializable view of a session, suitable
// for archival and for API responses.
type Snapshot struct {
	SessionID  string            `json:"session_id"`
	Topic      string            `json:"topic"`
	Personas   []string          `json:"personas"`
	Rounds     []Round           `json:"rounds"`
	Status     Status            `json:"status"`
	Verdict    *Verdict          `json:"verdict,omitempty"`
	Transcript []TranscriptEntry `json:"transcript,omitempty"`
}

// Snapshot captures the session's current state as an immutable value.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:  s.id,
		Topic:      s.topic,
		Personas:   s.Personas(),
		Rounds:     s.Rounds(),
		Status:     s.Status(),
		Verdict:    s.Verdict(),
		Transcript: s.Transcript(),
	}
}
