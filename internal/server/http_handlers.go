package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"resumegrade/internal/app"
	resumegradeErrors "resumegrade/internal/errors"
	"resumegrade/internal/extract"
	"resumegrade/internal/presentation"
)

// uploadFormField is the multipart field carrying the resume
const uploadFormField = "resume"

// multipartMemory is how much of an upload is buffered in memory before spilling to disk
const multipartMemory = 8 << 20

// pageHandler serves the single page for the current state
func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	state := s.App.State()

	data := presentation.PageData{
		Snapshot:      state.Snapshot,
		Modal:         state.Modal,
		CredentialSet: state.CredentialSet,
		KeyLabel:      s.KeyFormat.Label,
		KeyPrefix:     s.KeyFormat.Prefix,
		MaxFileSizeMB: float64(s.MaxFileSize) / (1024 * 1024),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Renderer.RenderPage(w, data); err != nil {
		s.Logger.LogError(err, "Failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// viewHandler returns the current page state for the client to apply
func (s *Server) viewHandler(w http.ResponseWriter, r *http.Request) {
	s.writeView(w, http.StatusOK, "")
}

// resumeHandler accepts an upload and starts the review in the background
func (s *Server) resumeHandler(w http.ResponseWriter, r *http.Request) {
	file, err := s.readUpload(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			message := extract.SizeLimitMessage(s.MaxFileSize)
			s.App.View().ShowBannerError(message)
			s.writeView(w, http.StatusRequestEntityTooLarge, message)
			return
		}
		s.Logger.LogError(err, "Failed to read upload", "client_ip", getClientIP(r))
		s.writeView(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	// The review outlives the request; keep its trace context only.
	ctx := context.WithoutCancel(r.Context())
	if err := s.App.Submit(ctx, file); err != nil {
		if errors.Is(err, app.ErrBusy) {
			s.writeView(w, http.StatusConflict, app.MsgBusy)
			return
		}
		s.Logger.LogError(err, "Failed to start review")
		s.writeView(w, http.StatusInternalServerError, resumegradeErrors.UnexpectedErrorMessage)
		return
	}

	s.writeView(w, http.StatusAccepted, "")
}

// readUpload reads the resume part of a multipart request. A request without
// the part yields a nil file, which the review rejects as "No file selected".
func (s *Server) readUpload(r *http.Request) (*extract.UploadedFile, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.Logger.Warn("Failed to remove multipart temp files", "error", err)
		}
	}()

	part, header, err := r.FormFile(uploadFormField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := part.Close(); err != nil {
			s.Logger.Warn("Failed to close upload", "error", err)
		}
	}()

	content, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}

	mimeType := extract.ResolveMIMEType(header.Header.Get("Content-Type"), header.Filename, content)
	s.Logger.Debug("Upload received",
		"filename", header.Filename,
		"declared_type", header.Header.Get("Content-Type"),
		"mime_type", mimeType,
		"size", len(content))
	return extract.NewUploadedFile(header.Filename, mimeType, content), nil
}

// resetHandler handles "Analyze Another Resume"
func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.App.Reset()
	s.writeView(w, http.StatusOK, "")
}

func (s *Server) modalOpenHandler(w http.ResponseWriter, r *http.Request) {
	s.App.OpenModal()
	s.writeView(w, http.StatusOK, "")
}

func (s *Server) modalCloseHandler(w http.ResponseWriter, r *http.Request) {
	s.App.CloseModal()
	s.writeView(w, http.StatusOK, "")
}

// saveCredentialHandler validates and stores a key from the modal
func (s *Server) saveCredentialHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeView(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.App.SaveCredential(req.APIKey); err != nil {
		status := http.StatusInternalServerError
		if resumegradeErrors.IsType(err, resumegradeErrors.ErrorTypeValidation) {
			status = http.StatusBadRequest
		}
		s.writeView(w, status, resumegradeErrors.UserMessage(err))
		return
	}

	s.writeView(w, http.StatusOK, "")
}

func (s *Server) clearCredentialHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.App.ClearCredential(); err != nil {
		s.writeView(w, http.StatusInternalServerError, resumegradeErrors.UserMessage(err))
		return
	}
	s.writeView(w, http.StatusOK, "")
}

// viewResponse builds the client payload from the controller state
func (s *Server) viewResponse() ViewResponse {
	state := s.App.State()
	snapshot := state.Snapshot

	resp := ViewResponse{
		Phase:         string(state.Phase),
		View:          snapshot.View.Kind,
		Message:       snapshot.View.Message,
		Banners:       snapshot.Banners,
		Modal:         state.Modal,
		CredentialSet: state.CredentialSet,
		Revision:      snapshot.Revision,
	}
	if resp.Banners == nil {
		resp.Banners = []presentation.Banner{}
	}

	if snapshot.View.Kind == presentation.ViewResults {
		html, err := s.Renderer.RenderResults(snapshot.View.Result)
		if err != nil {
			s.Logger.LogError(err, "Failed to render results")
		} else {
			resp.HTML = string(html)
			resp.AnimationElapsedMs = snapshot.AnimationElapsed().Milliseconds()
		}
	}
	return resp
}

// writeView writes the page state with an optional error message
func (s *Server) writeView(w http.ResponseWriter, statusCode int, errMessage string) {
	resp := s.viewResponse()
	resp.Error = errMessage
	writeJSON(w, statusCode, resp)
}

// healthHandler reports service health including the completion circuit breaker
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumegrade",
		"version": s.Version,
	}

	healthy := true
	if s.AI != nil {
		response["ai"] = s.AI.GetStats()
		healthy = s.AI.IsHealthy()
	}

	watchers := make([]map[string]any, 0, len(s.Watchers))
	for _, watcher := range s.Watchers {
		if reporter, ok := watcher.(interface{ Status() map[string]any }); ok {
			watchers = append(watchers, reporter.Status())
		}
	}
	if len(watchers) > 0 {
		response["watchers"] = watchers
	}

	statusCode := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	state := s.App.State()
	response := map[string]any{
		"service": "resumegrade",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_file_size_bytes":    s.MaxFileSize,
		},
		"review": map[string]any{
			"phase":          state.Phase,
			"credential_set": state.CredentialSet,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
		}
	}

	if s.AI != nil {
		response["circuit_breaker"] = s.AI.GetStats()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
