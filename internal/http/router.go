package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"brain-health-assessment/internal/app"
	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/observability/logging"
	"brain-health-assessment/internal/report"
	"brain-health-assessment/internal/service/pipeline"
	"brain-health-assessment/internal/service/stt"
	"brain-health-assessment/internal/transport"
)

const maxUploadBytes = 50 << 20

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	h := &handlers{app: application}
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", h.readiness)

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/backend/health", h.backendHealth)
		r.Get("/scenarios", h.scenarios)
		r.Post("/assessments", h.assess)
	})

	return r
}

type handlers struct {
	app *app.Application
}

type errorResponse struct {
	Stage     string `json:"stage,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (h *handlers) readiness(w http.ResponseWriter, r *http.Request) {
	if !h.app.Health.Check(r.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("backend unreachable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *handlers) backendHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"reachable": h.app.Health.Check(r.Context())})
}

func (h *handlers) scenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Fallback.Scenarios())
}

// assess accepts a multipart upload with a "file" part and optional
// "platform" and "age" fields, then runs one assessment session over it.
func (h *handlers) assess(w http.ResponseWriter, r *http.Request) {
	log := h.app.Logger.With().
		Str("component", "http").
		Str("requestId", middleware.GetReqID(r.Context())).
		Logger()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid multipart body: " + err.Error()})
		return
	}

	platform := h.app.Cfg.Transcription.Platform
	if v := r.FormValue("platform"); v != "" {
		p, err := models.ParsePlatform(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
			return
		}
		platform = p
	}

	age := 0
	if v := r.FormValue("age"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			err = report.ValidateAge(n)
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid age: " + v})
			return
		}
		age = n
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "missing file part"})
		return
	}
	defer file.Close()

	path, err := spool(file, platform)
	if err != nil {
		log.Error().Err(err).Msg("failed to store upload")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "failed to store upload"})
		return
	}
	defer os.Remove(path)

	var opts []pipeline.RunOption
	if age > 0 {
		opts = append(opts, pipeline.WithAge(age))
	}

	start := time.Now()
	res, err := h.app.Pipeline.Run(r.Context(), models.RecordingHandle{URI: path, Platform: platform}, opts...)
	if err != nil {
		var perr *pipeline.PipelineError
		if !errors.As(err, &perr) {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: err.Error()})
			return
		}
		status := http.StatusBadGateway
		if perr.Kind() == transport.KindTimeout {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, errorResponse{
			Stage:     perr.Stage,
			Kind:      string(perr.Kind()),
			Message:   perr.Error(),
			Retryable: true,
		})
		return
	}

	log.Debug().
		Str("sessionId", res.SessionID).
		Dur("elapsed", time.Since(start)).
		Bool(logging.RequestKey, true).
		Msg("assessment served")
	writeJSON(w, http.StatusOK, res)
}

// spool copies the upload to a temporary file named with the platform's
// audio extension.
func spool(src io.Reader, platform models.Platform) (string, error) {
	ext := filepath.Ext(stt.FormatFor(platform).Filename)
	f, err := os.CreateTemp("", "assessment-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
