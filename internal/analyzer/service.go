// internal/analyzer/service.go
package analyzer

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/mindloom/internal/types"
)

// upload is one stored attachment file. The path is the ephemeral local
// handle; it is indexed here and never serialized into session documents.
type upload struct {
	Path      string
	Name      string
	CreatedAt time.Time
}

// Service implements the analyzer contract locally and owns the upload
// directory. Every stored upload is eventually released by the cleanup job.
type Service struct {
	dir string

	mu      sync.Mutex
	uploads map[types.UploadID]upload
}

// NewService creates a Service storing uploads under dataDir/uploads.
func NewService(dataDir string) (*Service, error) {
	dir := filepath.Join(dataDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Service{dir: dir, uploads: make(map[types.UploadID]upload)}, nil
}

// Store writes an upload to the service directory and indexes it.
func (s *Service) Store(name string, data []byte) (types.UploadID, error) {
	id := types.NewUploadID()
	path := filepath.Join(s.dir, string(id)+"-"+filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	s.mu.Lock()
	s.uploads[id] = upload{Path: path, Name: name, CreatedAt: time.Now()}
	s.mu.Unlock()
	return id, nil
}

// Release removes one upload and its file.
func (s *Service) Release(id types.UploadID) {
	s.mu.Lock()
	u, ok := s.uploads[id]
	delete(s.uploads, id)
	s.mu.Unlock()
	if ok {
		if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
			slog.Warn("remove upload failed", "path", u.Path, "error", err)
		}
	}
}

// CleanupOlderThan releases every upload created before now−ttl and returns
// the number removed.
func (s *Service) CleanupOlderThan(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	s.mu.Lock()
	var expired []types.UploadID
	for id, u := range s.uploads {
		if u.CreatedAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.Release(id)
	}
	return len(expired)
}

// Register mounts the analyzer endpoints on mux.
func (s *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze/audio", s.handleAudio)
	mux.HandleFunc("POST /api/analyze/visual", s.handleVisual)
	mux.HandleFunc("POST /api/analyze/document", s.handleDocument)
}

func (s *Service) handleAudio(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r, "audio", types.AttachmentAudio, MaxAudioBytes)
	if !ok {
		return
	}
	id, err := s.Store(name, data)
	if err != nil {
		slog.Error("store audio upload", "error", err)
		writeDegraded(w, name)
		return
	}
	writeResult(w, name, id, AudioFeatures(data))
}

func (s *Service) handleVisual(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r, "visual", types.AttachmentVisual, MaxVideoBytes)
	if !ok {
		return
	}
	id, err := s.Store(name, data)
	if err != nil {
		slog.Error("store visual upload", "error", err)
		writeDegraded(w, name)
		return
	}
	writeResult(w, name, id, VisualFeatures(data))
}

func (s *Service) handleDocument(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r, "document", types.AttachmentDocument, MaxDocumentBytes)
	if !ok {
		return
	}
	analysis, err := ExtractDocument(name, data)
	if err != nil {
		slog.Warn("document extraction failed", "name", name, "error", err)
		writeDegraded(w, name)
		return
	}
	// Document text is consumed at analysis time; no handle outlives it.
	writeResult(w, name, "", analysis)
}

// readUpload parses the multipart form field, enforcing kind and size
// constraints. A malformed upload answers a degraded result, not an error
// status: analysis failure is never fatal to the caller's conversation.
func (s *Service) readUpload(w http.ResponseWriter, r *http.Request, field string, kind types.AttachmentKind, limit int64) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	file, header, err := r.FormFile(field)
	if err != nil {
		writeDegraded(w, "")
		return "", nil, false
	}
	defer file.Close()

	if err := CheckUpload(kind, header.Filename, header.Size); err != nil {
		slog.Warn("upload rejected", "field", field, "name", header.Filename, "error", err)
		writeDegraded(w, header.Filename)
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeDegraded(w, header.Filename)
		return "", nil, false
	}
	return header.Filename, data, true
}

func writeResult(w http.ResponseWriter, name string, id types.UploadID, analysis any) {
	w.Header().Set("Content-Type", "application/json")
	metadata := map[string]any{"name": name}
	if id != "" {
		metadata["upload_id"] = id
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"analysis": analysis,
		"metadata": metadata,
	})
}

func writeDegraded(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  false,
		"analysis": map[string]any{},
		"metadata": map[string]any{"name": name},
	})
}
