// internal/store/snapshot.go
package store

import "github.com/user/mindloom/internal/types"

// Read accessors return deep copies so callers can read (or marshal) a
// session without holding the store's mutex while mutations continue.
// Everything reachable from a returned session is owned by the caller.

func cloneSession(sess *types.Session) *types.Session {
	out := *sess
	out.Messages = make([]*types.Message, len(sess.Messages))
	for i, m := range sess.Messages {
		out.Messages[i] = cloneMessage(m)
	}
	out.State = cloneState(sess.State)
	return &out
}

func cloneMessage(m *types.Message) *types.Message {
	out := *m
	out.Images = cloneStrings(m.Images)
	out.EmotionalMarkers = cloneStrings(m.EmotionalMarkers)
	out.PsychologicalPatterns = cloneStrings(m.PsychologicalPatterns)
	out.Violations = cloneStrings(m.Violations)
	if m.Attachments != nil {
		out.Attachments = make([]types.Attachment, len(m.Attachments))
		for i, a := range m.Attachments {
			out.Attachments[i] = cloneAttachment(a)
		}
	}
	return &out
}

func cloneAttachment(a types.Attachment) types.Attachment {
	out := a
	if a.Audio != nil {
		audio := *a.Audio
		out.Audio = &audio
	}
	if a.Visual != nil {
		visual := *a.Visual
		visual.DominantColors = cloneStrings(a.Visual.DominantColors)
		out.Visual = &visual
	}
	if a.Document != nil {
		doc := *a.Document
		doc.Keywords = cloneStrings(a.Document.Keywords)
		out.Document = &doc
	}
	return out
}

func cloneState(st types.ConversationState) types.ConversationState {
	out := st
	out.ExploredTopics = cloneStrings(st.ExploredTopics)
	out.EmotionalPatterns = cloneStrings(st.EmotionalPatterns)
	out.TraumaIndicators = cloneStrings(st.TraumaIndicators)
	out.AttachmentPatterns = cloneStrings(st.AttachmentPatterns)
	if st.Insights != nil {
		out.Insights = make([]types.Insight, len(st.Insights))
		for i, ins := range st.Insights {
			out.Insights[i] = ins
			out.Insights[i].Evidence = cloneStrings(ins.Evidence)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
