// Package store owns the session aggregate: message history, derived
// conversation state, and the JSON persistence of both. All mutations
// serialize through one mutex; derived fields are recomputed in full on
// every mutation rather than advanced incrementally.
package store

import (
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/user/mindloom/internal/analysis"
	"github.com/user/mindloom/internal/boundary"
	"github.com/user/mindloom/internal/depth"
	"github.com/user/mindloom/internal/types"
)

const titleLimit = 60

// Event describes a completed store mutation.
type Event struct {
	Op        string
	SessionID types.SessionID
}

// Observer receives post-mutation events. Observers may read the store.
type Observer func(Event)

// Store is the conversation-state aggregate.
type Store struct {
	mu         sync.RWMutex
	path       string
	sessions   []*types.Session // most-recent-first
	activeID   types.SessionID
	violations int
	health     int
	thresholds types.Thresholds

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates a Store persisting to sessions.json under dataDir.
func New(dataDir string, th types.Thresholds) *Store {
	return &Store{
		path:       sessionsPath(dataDir),
		health:     100,
		thresholds: th,
	}
}

// Subscribe registers an observer for mutation events.
func (s *Store) Subscribe(obs Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, obs)
}

func (s *Store) notify(ev Event) {
	s.obsMu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()
	for _, obs := range observers {
		obs(ev)
	}
}

// CreateSession allocates a new session of the given type, makes it active,
// and persists the collection.
func (s *Store) CreateSession(t types.AnalysisType) *types.Session {
	s.mu.Lock()
	now := time.Now()
	sess := &types.Session{
		ID:           types.NewSessionID(),
		Title:        t.DefaultTitle(),
		AnalysisType: t,
		CreatedAt:    now,
		UpdatedAt:    now,
		State:        types.DefaultConversationState(),
	}
	s.sessions = append([]*types.Session{sess}, s.sessions...)
	s.activeID = sess.ID
	s.saveLocked()
	snap := cloneSession(sess)
	s.mu.Unlock()

	s.notify(Event{Op: "create", SessionID: sess.ID})
	return snap
}

// ResolveOrCreate returns the session bound to key, creating one (active,
// persisted) if none exists.
func (s *Store) ResolveOrCreate(key types.SessionKey, t types.AnalysisType) *types.Session {
	s.mu.Lock()
	for _, sess := range s.sessions {
		if sess.Key == key {
			snap := cloneSession(sess)
			s.mu.Unlock()
			return snap
		}
	}
	now := time.Now()
	sess := &types.Session{
		ID:           types.NewSessionID(),
		Key:          key,
		Title:        t.DefaultTitle(),
		AnalysisType: t,
		CreatedAt:    now,
		UpdatedAt:    now,
		State:        types.DefaultConversationState(),
	}
	s.sessions = append([]*types.Session{sess}, s.sessions...)
	s.activeID = sess.ID
	s.saveLocked()
	snap := cloneSession(sess)
	s.mu.Unlock()

	s.notify(Event{Op: "create", SessionID: sess.ID})
	return snap
}

// Get returns a snapshot of the session with the given id.
func (s *Store) Get(id types.SessionID) (*types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := s.findLocked(id)
	if sess == nil {
		return nil, false
	}
	return cloneSession(sess), true
}

// Sessions returns a snapshot of the session collection, most recent first.
func (s *Store) Sessions() []*types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = cloneSession(sess)
	}
	return out
}

// Active returns a snapshot of the active session, or nil.
func (s *Store) Active() *types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := s.findLocked(s.activeID)
	if sess == nil {
		return nil
	}
	return cloneSession(sess)
}

// SetActive activates the session with the given id.
func (s *Store) SetActive(id types.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) == nil {
		return false
	}
	s.activeID = id
	return true
}

func (s *Store) findLocked(id types.SessionID) *types.Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// AppendOptions carries optional message payloads.
type AppendOptions struct {
	Images      []string
	Attachments []types.Attachment
}

// AppendMessage constructs a message, populates its derived fields, and
// appends it to the session. The session's first user message derives the
// title. Appending while an assistant message is still in progress is
// rejected: at most one in-progress message exists per session.
func (s *Store) AppendMessage(id types.SessionID, role types.Role, content string, opts AppendOptions) (*types.Message, bool) {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return nil, false
	}
	if last := lastMessage(sess); last != nil && inProgress(last) {
		// The in-progress slot must be filled via UpdateLastMessage first;
		// no second in-progress message is permitted.
		s.mu.Unlock()
		return nil, false
	}

	msg := &types.Message{
		ID:                    types.NewMessageID(),
		Role:                  role,
		Content:               content,
		CreatedAt:             time.Now(),
		Images:                cloneStrings(opts.Images),
		EmotionalMarkers:      analysis.EmotionalMarkers(content),
		PsychologicalPatterns: analysis.PsychologicalPatterns(content),
	}
	if opts.Attachments != nil {
		msg.Attachments = make([]types.Attachment, len(opts.Attachments))
		for i, a := range opts.Attachments {
			msg.Attachments[i] = cloneAttachment(a)
		}
	}

	if role == types.RoleUser && firstUserMessage(sess) == nil && content != "" {
		sess.Title = deriveTitle(content)
	}

	sess.Messages = append(sess.Messages, msg)
	s.touchLocked(sess)
	s.refreshStateLocked(sess)
	s.saveLocked()
	snap := cloneMessage(msg)
	s.mu.Unlock()

	s.notify(Event{Op: "append", SessionID: id})
	return snap, true
}

// AppendToActive appends to the active session, or no-ops when none exists.
func (s *Store) AppendToActive(role types.Role, content string, opts AppendOptions) (*types.Message, bool) {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()
	if id == "" {
		return nil, false
	}
	return s.AppendMessage(id, role, content, opts)
}

// UpdateLastMessage replaces the content and derived fields of the session's
// most recent message. It is only valid when that message has role
// assistant; otherwise it is a no-op. Violations are folded into the
// session's cumulative counter and the score into the running quality blend.
func (s *Store) UpdateLastMessage(id types.SessionID, content string, score int, violations []string) bool {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return false
	}
	last := lastMessage(sess)
	if last == nil || last.Role != types.RoleAssistant {
		s.mu.Unlock()
		return false
	}

	last.Content = content
	last.EmotionalMarkers = analysis.EmotionalMarkers(content)
	last.PsychologicalPatterns = analysis.PsychologicalPatterns(content)
	last.ValidationScore = score
	last.Violations = violations

	sess.State.BoundaryViolations += len(violations)
	s.violations += len(violations)
	// Two-term blend, not a windowed mean: O(1) by design.
	sess.State.QualityAverage = (sess.State.QualityAverage + float64(score)) / 2

	s.touchLocked(sess)
	s.refreshStateLocked(sess)
	s.recomputeHealthLocked()
	s.saveLocked()
	s.mu.Unlock()

	s.notify(Event{Op: "update", SessionID: id})
	return true
}

// DeleteSession removes the session. If it was active, activation falls
// back to the most recent remaining session, or to none.
func (s *Store) DeleteSession(id types.SessionID) bool {
	s.mu.Lock()
	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if s.activeID == id {
		if len(s.sessions) > 0 {
			s.activeID = s.sessions[0].ID
		} else {
			s.activeID = ""
		}
	}
	s.saveLocked()
	s.mu.Unlock()

	s.notify(Event{Op: "delete", SessionID: id})
	return true
}

// RecordViolation increments the active session's and the global violation
// counters and recomputes system health.
func (s *Store) RecordViolation(label string) {
	s.mu.Lock()
	id := s.activeID
	if sess := s.findLocked(id); sess != nil {
		sess.State.BoundaryViolations++
	}
	s.violations++
	s.recomputeHealthLocked()
	s.mu.Unlock()

	slog.Debug("boundary violation recorded", "label", label, "session_id", id)
	s.notify(Event{Op: "violation", SessionID: id})
}

// Health returns the violation-derived system health score in [0,100].
func (s *Store) Health() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// health = clamp(100 − violationRate×10) where violationRate is violations
// per message across all sessions, as a percentage.
func (s *Store) recomputeHealthLocked() {
	total := 0
	for _, sess := range s.sessions {
		total += len(sess.Messages)
	}
	if total == 0 {
		s.health = 100
		return
	}
	rate := float64(s.violations) / float64(total) * 100
	h := int(100 - rate*10)
	if h < 0 {
		h = 0
	}
	if h > 100 {
		h = 100
	}
	s.health = h
}

// touchLocked advances the session's UpdatedAt monotonically and moves it
// to the front of the most-recent-first collection.
func (s *Store) touchLocked(sess *types.Session) {
	now := time.Now()
	if now.Before(sess.UpdatedAt) {
		now = sess.UpdatedAt
	}
	sess.UpdatedAt = now

	for i, candidate := range s.sessions {
		if candidate.ID == sess.ID {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	s.sessions = append([]*types.Session{sess}, s.sessions...)
}

// refreshStateLocked recomputes every derived conversation-state field from
// the full message history.
func (s *Store) refreshStateLocked(sess *types.Session) {
	var topics, emotional [][]string
	var userTexts []string
	for _, m := range sess.Messages {
		if m.Role != types.RoleUser {
			continue
		}
		topics = append(topics, m.PsychologicalPatterns)
		emotional = append(emotional, m.EmotionalMarkers)
		userTexts = append(userTexts, m.Content)
	}
	joined := strings.Join(userTexts, " ")

	sess.State.ExploredTopics = analysis.MergeSets(topics...)
	sess.State.EmotionalPatterns = analysis.MergeSets(emotional...)
	sess.State.TraumaIndicators = analysis.TraumaIndicators(joined)
	sess.State.AttachmentPatterns = analysis.AttachmentPatterns(joined)
	sess.State.Depth = depth.Classify(sess.Messages, s.thresholds)
	sess.State.Insights = depth.Insights(sess.Messages)
	sess.State.UserEnergy = classifyEnergy(userTexts)
	sess.State.CommunicationStyle = classifyStyle(userTexts)
}

func classifyEnergy(userTexts []string) types.UserEnergy {
	if len(userTexts) == 0 {
		return types.EnergySteady
	}
	words := 0
	for _, t := range userTexts {
		words += len(strings.Fields(t))
	}
	avg := words / len(userTexts)
	switch {
	case avg < 8:
		return types.EnergyLow
	case avg > 40:
		return types.EnergyHigh
	default:
		return types.EnergySteady
	}
}

func classifyStyle(userTexts []string) types.CommunicationStyle {
	if len(userTexts) == 0 {
		return types.StyleReflective
	}
	questions := 0
	long := 0
	for _, t := range userTexts {
		if strings.Contains(t, "?") {
			questions++
		}
		if len(t) > 120 {
			long++
		}
	}
	switch {
	case questions*2 >= len(userTexts):
		return types.StyleExploratory
	case long*2 >= len(userTexts):
		return types.StyleReflective
	default:
		return types.StyleDirect
	}
}

func lastMessage(sess *types.Session) *types.Message {
	if len(sess.Messages) == 0 {
		return nil
	}
	return sess.Messages[len(sess.Messages)-1]
}

func firstUserMessage(sess *types.Session) *types.Message {
	for _, m := range sess.Messages {
		if m.Role == types.RoleUser {
			return m
		}
	}
	return nil
}

func inProgress(m *types.Message) bool {
	return m.Role == types.RoleAssistant && m.Content == ""
}

func deriveTitle(content string) string {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= titleLimit {
		return trimmed
	}
	// Cut on a rune boundary so the stored title stays valid UTF-8.
	cut := titleLimit
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut] + "..."
}

// MessageScore returns the message-level quality score for a stored message.
func MessageScore(m *types.Message) int {
	return boundary.ScoreMessage(len(m.EmotionalMarkers), len(m.PsychologicalPatterns), len(m.Violations))
}

func logSaveError(err error) {
	slog.Error("persist sessions failed, in-memory state remains authoritative", "error", err)
}
