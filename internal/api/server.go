package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"flashgen/internal/services"
)

const (
	maxMultipartMemory = 8 << 20  // 8 MB
	maxRequestBody     = 4 << 20  // 4 MB
	maxUploadSize      = 32 << 20 // 32 MB
)

// FlashcardGenerator is the generation entry point the handlers depend on.
type FlashcardGenerator interface {
	Generate(ctx context.Context, req services.Request, progress services.ProgressCallback) (*services.Result, error)
}

// CredentialLookup returns the server-side key for a provider, or "".
type CredentialLookup func(provider string) string

type Options struct {
	Generator       FlashcardGenerator
	PDF             *services.PDFService
	Credentials     CredentialLookup
	DefaultProvider services.Provider
	Logger          *slog.Logger
}

type Server struct {
	router          chi.Router
	generator       FlashcardGenerator
	pdf             *services.PDFService
	credentials     CredentialLookup
	defaultProvider services.Provider
	jobs            *JobManager
	logger          *slog.Logger
}

func NewServer(opts Options) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		generator:       opts.Generator,
		pdf:             opts.PDF,
		credentials:     opts.Credentials,
		defaultProvider: opts.DefaultProvider,
		jobs:            NewJobManager(),
		logger:          opts.Logger,
	}
	if s.credentials == nil {
		s.credentials = func(string) string { return "" }
	}
	if !s.defaultProvider.Known() {
		s.defaultProvider = services.ProviderOpenAI
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/providers", s.handleListProviders)
		r.Post("/flashcards/generate", s.handleGenerate)
		r.Post("/flashcards/jobs", s.handleCreateJob)
		r.Get("/flashcards/jobs/{jobID}", s.handleJobStatus)
		r.Post("/documents/text", s.handleExtractText)
	})
}

type generateRequest struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"apiKey"`
}

type providerResponse struct {
	ID           services.Provider `json:"id"`
	Name         string            `json:"name"`
	DefaultModel string            `json:"defaultModel"`
	Models       []string          `json:"models"`
	Configured   bool              `json:"configured"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	out := make([]providerResponse, 0, len(services.Providers()))
	for _, p := range services.Providers() {
		out = append(out, providerResponse{
			ID:           p,
			Name:         p.DisplayName(),
			DefaultModel: services.DefaultModelFor(p),
			Models:       services.ModelOptions(p),
			Configured:   s.credentials(string(p)) != "",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"providers":       out,
		"defaultProvider": s.defaultProvider,
	})
}

// decodeGenerateRequest reads the JSON body into a services.Request. A blank
// apiKey picks up the server-side credential for the provider.
func (s *Server) decodeGenerateRequest(w http.ResponseWriter, r *http.Request) (services.Request, bool) {
	var body generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return services.Request{}, false
	}

	provider := s.defaultProvider
	if raw := strings.TrimSpace(body.Provider); raw != "" {
		provider = services.Provider(strings.ToLower(raw))
	}

	credential := strings.TrimSpace(body.APIKey)
	if credential == "" {
		credential = s.credentials(string(provider))
	}

	return services.Request{
		Text:       body.Text,
		Provider:   provider,
		Model:      strings.TrimSpace(body.Model),
		Credential: credential,
	}, true
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	result, err := s.generator.Generate(r.Context(), req, nil)
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGenerateRequest(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeGenerateError(w, &services.ValidationError{Field: "text", Err: services.ErrEmptyText})
		return
	}

	snapshot := s.jobs.CreateJob(req.Provider, req.Model)
	go s.runGenerationJob(context.Background(), snapshot.ID, req)

	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) runGenerationJob(ctx context.Context, jobID string, req services.Request) {
	s.jobs.MarkProcessing(jobID)

	result, err := s.generator.Generate(ctx, req, s.jobs.progressFor(jobID))
	if err != nil {
		s.logger.WarnContext(ctx, "generation job failed", "job_id", jobID, "error", err)
		s.jobs.MarkFailed(jobID, err.Error())
		return
	}
	s.jobs.MarkComplete(jobID, result)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(chi.URLParam(r, "jobID"))
	job, ok := s.jobs.GetJob(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	if s.pdf == nil {
		writeError(w, http.StatusServiceUnavailable, "document extraction is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	doc, err := s.pdf.ExtractUpload(header.Filename, file)
	if err != nil {
		s.logger.WarnContext(r.Context(), "text extraction failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) writeGenerateError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Err.Error())
		return
	}
	s.logger.Error("generation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "generation failed")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
