// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/careerfit"
	"github.com/poiesic/careerfit/core"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

const defaultMaxUpload = 32 << 20

// Service is the subset of careerfit.Navigator the API needs.
type Service interface {
	Analyze(ctx context.Context, req *careerfit.Request) (*careerfit.Submission, error)
	Get(ctx context.Context, id string) (*core.AnalysisRecord, error)
	Summary(ctx context.Context, id string) (*core.AnalysisSummary, error)
}

// Server serves the compatibility API.
type Server struct {
	svc       Service
	maxUpload int64
	tempDir   string
	mounts    map[string]http.Handler
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUpload caps the multipart body size in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithTempDir sets where uploads are staged. Default is os.TempDir().
func WithTempDir(dir string) Option {
	return func(s *Server) {
		s.tempDir = dir
	}
}

// WithMount serves h under pattern alongside the API routes.
func WithMount(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.mounts[pattern] = h
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "httpapi")
	}
}

// NewServer creates a Server over svc.
func NewServer(svc Service, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.New("httpapi: service is required")
	}
	s := &Server{
		svc:       svc,
		maxUpload: defaultMaxUpload,
		mounts:    map[string]http.Handler{},
		now:       time.Now,
		logger:    slog.Default().With("component", "httpapi"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze-compatibility", s.handleAnalyze)
	mux.HandleFunc("GET /analysis/{id}", s.handleGet)
	mux.HandleFunc("GET /analysis/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	for pattern, h := range s.mounts {
		mux.Handle(pattern, h)
	}
	return cors(mux)
}

// cors allows browser clients from any origin and answers preflight
// requests without reaching the routes.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	s.logger.Info("listening", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type analysisResponse struct {
	AnalysisID string               `json:"analysis_id"`
	Status     string               `json:"status"`
	Data       *core.AnalysisRecord `json:"data"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("error writing response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

var allowedUploads = []string{".pdf", ".txt"}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	var staged []string
	defer func() {
		for _, p := range staged {
			os.Remove(p) //nolint:errcheck
		}
	}()
	stage := func(field string, required bool, label string) (string, bool) {
		path, err := s.stageUpload(r, field)
		switch {
		case errors.Is(err, http.ErrMissingFile):
			if required {
				s.writeError(w, http.StatusBadRequest, label+" is required")
				return "", false
			}
			return "", true
		case errors.Is(err, errUnsupportedUpload):
			s.writeError(w, http.StatusBadRequest, label+" must be a PDF or TXT file")
			return "", false
		case err != nil:
			s.logger.Error("error staging upload", "field", field, "err", err)
			s.writeError(w, http.StatusInternalServerError, "could not store upload")
			return "", false
		}
		staged = append(staged, path)
		return path, true
	}

	resume, ok := stage("resume_file", true, "Resume")
	if !ok {
		return
	}
	linkedin, ok := stage("linkedin_profile", false, "LinkedIn profile")
	if !ok {
		return
	}
	company, ok := stage("company_data", true, "Company data")
	if !ok {
		return
	}

	req := &careerfit.Request{
		ResumePath:      resume,
		LinkedInPath:    linkedin,
		CareerGoals:     r.FormValue("career_goals"),
		CompanyPath:     company,
		JobDescriptions: r.FormValue("job_descriptions"),
		CompanyURLs:     splitURLs(r.FormValue("company_urls")),
	}

	sub, err := s.svc.Analyze(r.Context(), req)
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Error("analysis failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "Analysis failed: "+err.Error())
	default:
		s.writeJSON(w, http.StatusOK, sub)
	}
}

var errUnsupportedUpload = errors.New("unsupported upload type")

// stageUpload copies the named form file to a temp file that keeps the
// upload's extension.
func (s *Server) stageUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowed(ext) {
		return "", fmt.Errorf("%w: %s", errUnsupportedUpload, header.Filename)
	}
	return copyToTemp(file, s.tempDir, ext)
}

func allowed(ext string) bool {
	for _, a := range allowedUploads {
		if ext == a {
			return true
		}
	}
	return false
}

func copyToTemp(src multipart.File, dir, ext string) (string, error) {
	dst, err := os.CreateTemp(dir, "careerfit-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name()) //nolint:errcheck
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name()) //nolint:errcheck
		return "", err
	}
	return dst.Name(), nil
}

func splitURLs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.lookupError(w, "Failed to retrieve analysis", err)
		return
	}
	s.writeJSON(w, http.StatusOK, analysisResponse{
		AnalysisID: id,
		Status:     record.Status,
		Data:       record,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		s.lookupError(w, "Failed to retrieve analysis summary", err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) lookupError(w http.ResponseWriter, prefix string, err error) {
	if errors.Is(err, core.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("lookup failed", "err", err)
	s.writeError(w, http.StatusInternalServerError, prefix+": "+err.Error())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Candidate-Company Compatibility Navigator API is running!",
		"version": Version,
		"endpoints": map[string]string{
			"POST /analyze-compatibility":         "Submit files and data for compatibility analysis",
			"GET /analysis/{analysis_id}":         "Retrieve complete analysis results by ID",
			"GET /analysis/{analysis_id}/summary": "Retrieve analysis summary by ID",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "Compatibility Navigator API",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}
