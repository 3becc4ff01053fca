package llm

// Message represents a chat message in a conversation. Images are encoded
// strings attached to the user turn.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// Response represents a complete response from a model endpoint.
type Response struct {
	Content string `json:"content"`
}
