// internal/types/models.go
package types

import "time"

// AnalysisType selects the conversation mode and its prompt family.
type AnalysisType string

const (
	AnalysisPersonality   AnalysisType = "personality"
	AnalysisCreative      AnalysisType = "creative"
	AnalysisMusic         AnalysisType = "music"
	AnalysisVisual        AnalysisType = "visual"
	AnalysisLabelInsights AnalysisType = "label-insights"
)

// Valid reports whether t is one of the supported analysis types.
func (t AnalysisType) Valid() bool {
	switch t {
	case AnalysisPersonality, AnalysisCreative, AnalysisMusic, AnalysisVisual, AnalysisLabelInsights:
		return true
	}
	return false
}

// DefaultTitle returns the display title used until the first user message
// provides a better one.
func (t AnalysisType) DefaultTitle() string {
	switch t {
	case AnalysisPersonality:
		return "Personality Analysis"
	case AnalysisCreative:
		return "Creative Exploration"
	case AnalysisMusic:
		return "Music Reflection"
	case AnalysisVisual:
		return "Visual Reflection"
	case AnalysisLabelInsights:
		return "Label Insights"
	}
	return "Conversation"
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Depth classifies how far a conversation has progressed.
type Depth string

const (
	DepthSurface     Depth = "surface"
	DepthEmerging    Depth = "emerging"
	DepthDeep        Depth = "deep"
	DepthIntegration Depth = "integration"
)

type UserEnergy string

const (
	EnergyLow    UserEnergy = "low"
	EnergySteady UserEnergy = "steady"
	EnergyHigh   UserEnergy = "high"
)

type CommunicationStyle string

const (
	StyleDirect      CommunicationStyle = "direct"
	StyleReflective  CommunicationStyle = "reflective"
	StyleExploratory CommunicationStyle = "exploratory"
)

// InsightCategory tags a structured observation folded into the
// conversation state.
type InsightCategory string

const (
	InsightAttachment InsightCategory = "attachment"
	InsightEmotional  InsightCategory = "emotional-regulation"
	InsightIdentity   InsightCategory = "identity"
	InsightRelational InsightCategory = "relationships"
	InsightCoping     InsightCategory = "coping"
)

// Insight is one structured observation with its supporting evidence.
type Insight struct {
	Category   InsightCategory `json:"category"`
	Confidence float64         `json:"confidence"`
	Evidence   []string        `json:"evidence"`
	Notes      string          `json:"notes,omitempty"`
}

// ConversationState is the rolling aggregate of qualitative signals kept per
// session. Depth is a cached convenience; it is always recomputed from the
// message history, never set independently.
type ConversationState struct {
	SafetyLevel        int                `json:"safety_level"`
	ExploredTopics     []string           `json:"explored_topics"`
	EmotionalPatterns  []string           `json:"emotional_patterns"`
	TraumaIndicators   []string           `json:"trauma_indicators"`
	AttachmentPatterns []string           `json:"attachment_patterns"`
	Insights           []Insight          `json:"insights"`
	Depth              Depth              `json:"depth"`
	UserEnergy         UserEnergy         `json:"user_energy"`
	CommunicationStyle CommunicationStyle `json:"communication_style"`
	BoundaryViolations int                `json:"boundary_violations"`
	QualityAverage     float64            `json:"quality_average"`
}

// DefaultConversationState returns the state a fresh session starts with.
func DefaultConversationState() ConversationState {
	return ConversationState{
		SafetyLevel:        5,
		Depth:              DepthSurface,
		UserEnergy:         EnergySteady,
		CommunicationStyle: StyleReflective,
		QualityAverage:     100,
	}
}

type AttachmentKind string

const (
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentVisual   AttachmentKind = "visual"
	AttachmentDocument AttachmentKind = "document"
)

// AudioAnalysis holds derived audio features.
type AudioAnalysis struct {
	Tempo       int     `json:"tempo"`
	Energy      float64 `json:"energy"`
	Valence     float64 `json:"valence"`
	Mood        string  `json:"mood"`
	DurationSec float64 `json:"duration_sec,omitempty"`
}

// VisualAnalysis holds derived image/video features.
type VisualAnalysis struct {
	DominantColors []string `json:"dominant_colors"`
	Brightness     float64  `json:"brightness"`
	Complexity     string   `json:"complexity"`
	Mood           string   `json:"mood"`
}

// DocumentAnalysis holds derived document features.
type DocumentAnalysis struct {
	WordCount int      `json:"word_count"`
	CharCount int      `json:"char_count"`
	Keywords  []string `json:"keywords"`
	Excerpt   string   `json:"excerpt,omitempty"`
}

// Attachment is the durable record of an uploaded file. The local handle for
// the upload lives in the analyzer upload index keyed by UploadID; only this
// metadata survives a reload.
type Attachment struct {
	Kind     AttachmentKind    `json:"kind"`
	Name     string            `json:"name"`
	MimeType string            `json:"mime_type,omitempty"`
	UploadID UploadID          `json:"upload_id,omitempty"`
	Audio    *AudioAnalysis    `json:"audio,omitempty"`
	Visual   *VisualAnalysis   `json:"visual,omitempty"`
	Document *DocumentAnalysis `json:"document,omitempty"`
}

// Message is one turn within a session. Content is mutable only for the most
// recent assistant message, via the store's update-last-message operation.
type Message struct {
	ID                    MessageID    `json:"id"`
	Role                  Role         `json:"role"`
	Content               string       `json:"content"`
	CreatedAt             time.Time    `json:"created_at"`
	Images                []string     `json:"images,omitempty"`
	Attachments           []Attachment `json:"attachments,omitempty"`
	EmotionalMarkers      []string     `json:"emotional_markers,omitempty"`
	PsychologicalPatterns []string     `json:"psychological_patterns,omitempty"`
	ValidationScore       int          `json:"validation_score,omitempty"`
	Violations            []string     `json:"violations,omitempty"`
}

// Session is one analysis thread.
type Session struct {
	ID           SessionID         `json:"id"`
	Key          SessionKey        `json:"key,omitempty"`
	Title        string            `json:"title"`
	AnalysisType AnalysisType      `json:"analysis_type"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Messages     []*Message        `json:"messages"`
	State        ConversationState `json:"state"`
}

// Thresholds are the tunable constants behind depth classification and
// response-length checks. The defaults mirror the reference behavior; they
// are configuration, not validated values.
type Thresholds struct {
	EmergingAt           int `json:"emerging_at"`
	DeepAt               int `json:"deep_at"`
	IntegrationAt        int `json:"integration_at"`
	DeepExplorationChars int `json:"deep_exploration_chars"`
	LongResponseChars    int `json:"long_response_chars"`
}

// DefaultThresholds returns the reference constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EmergingAt:           4,
		DeepAt:               8,
		IntegrationAt:        15,
		DeepExplorationChars: 200,
		LongResponseChars:    1200,
	}
}
