// Package analyzer derives descriptive metadata from uploaded audio, image,
// and document files. The Client talks to analyzer endpoints over multipart
// HTTP; the Service provides a local implementation of the same contract.
// Analysis is always best-effort: any failure degrades to "attachment
// available without analysis" and is never fatal to the conversation.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/mindloom/internal/types"
)

// Upload size limits per media kind, in bytes.
const (
	MaxDocumentBytes = 25 << 20
	MaxAudioBytes    = 50 << 20
	MaxImageBytes    = 10 << 20
	MaxVideoBytes    = 100 << 20
)

var documentExts = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true,
	".md": true, ".rtf": true, ".html": true, ".htm": true,
}

var audioExts = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".ogg": true, ".flac": true, ".aac": true,
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".webm": true, ".mkv": true,
}

// CheckUpload validates an upload's extension and size for its kind.
func CheckUpload(kind types.AttachmentKind, name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	switch kind {
	case types.AttachmentDocument:
		if !documentExts[ext] {
			return fmt.Errorf("unsupported document type %q", ext)
		}
		if size > MaxDocumentBytes {
			return fmt.Errorf("document exceeds %d bytes", int64(MaxDocumentBytes))
		}
	case types.AttachmentAudio:
		if !audioExts[ext] {
			return fmt.Errorf("unsupported audio type %q", ext)
		}
		if size > MaxAudioBytes {
			return fmt.Errorf("audio exceeds %d bytes", int64(MaxAudioBytes))
		}
	case types.AttachmentVisual:
		if videoExts[ext] {
			if size > MaxVideoBytes {
				return fmt.Errorf("video exceeds %d bytes", int64(MaxVideoBytes))
			}
			return nil
		}
		if !imageExts[ext] {
			return fmt.Errorf("unsupported visual type %q", ext)
		}
		if size > MaxImageBytes {
			return fmt.Errorf("image exceeds %d bytes", int64(MaxImageBytes))
		}
	default:
		return fmt.Errorf("unknown attachment kind %q", kind)
	}
	return nil
}

// Result is the analyzer wire response.
type Result struct {
	Success  bool            `json:"success"`
	Analysis json.RawMessage `json:"analysis"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// Client uploads attachments to analyzer endpoints.
type Client struct {
	httpClient  *http.Client
	audioURL    string
	visualURL   string
	documentURL string
}

// NewClient creates a Client for the given endpoint URLs. Empty URLs
// disable the corresponding analyzer.
func NewClient(audioURL, visualURL, documentURL string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		audioURL:    audioURL,
		visualURL:   visualURL,
		documentURL: documentURL,
	}
}

// AnalyzeAudio uploads an audio file and returns its analysis. Any failure
// returns an error; callers attach the file without analysis.
func (c *Client) AnalyzeAudio(ctx context.Context, name string, data []byte) (*types.AudioAnalysis, error) {
	raw, err := c.post(ctx, c.audioURL, "audio", types.AttachmentAudio, name, data)
	if err != nil {
		return nil, err
	}
	var out types.AudioAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse audio analysis: %w", err)
	}
	return &out, nil
}

// AnalyzeVisual uploads an image or video file and returns its analysis.
func (c *Client) AnalyzeVisual(ctx context.Context, name string, data []byte) (*types.VisualAnalysis, error) {
	raw, err := c.post(ctx, c.visualURL, "visual", types.AttachmentVisual, name, data)
	if err != nil {
		return nil, err
	}
	var out types.VisualAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse visual analysis: %w", err)
	}
	return &out, nil
}

// AnalyzeDocument uploads a document file and returns its analysis.
func (c *Client) AnalyzeDocument(ctx context.Context, name string, data []byte) (*types.DocumentAnalysis, error) {
	raw, err := c.post(ctx, c.documentURL, "document", types.AttachmentDocument, name, data)
	if err != nil {
		return nil, err
	}
	var out types.DocumentAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse document analysis: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, url, field string, kind types.AttachmentKind, name string, data []byte) (json.RawMessage, error) {
	if url == "" {
		return nil, fmt.Errorf("%s analyzer not configured", field)
	}
	if err := CheckUpload(kind, name, int64(len(data))); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, name)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", field, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read analyzer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer error (status %d)", resp.StatusCode)
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse analyzer response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("analysis unavailable for %s", name)
	}
	return result.Analysis, nil
}
