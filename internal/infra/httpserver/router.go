package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/veritaslab/aiprobe/internal/application/analysis"
	domain "github.com/veritaslab/aiprobe/internal/domain/analysis"
	"github.com/veritaslab/aiprobe/internal/domain/routing"
	"github.com/veritaslab/aiprobe/internal/infra/storage"
	"github.com/veritaslab/aiprobe/internal/middleware"
)

type Router struct {
	svc     *appanalysis.Service
	storage *storage.Store // optional; nil disables uploads
}

func NewRouter(svc *appanalysis.Service, store *storage.Store, health http.HandlerFunc) http.Handler {
	r := &Router{svc: svc, storage: store}
	mux := chi.NewRouter()

	mux.Get("/health", health)
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/latest", r.wrap(r.handleLatest))
		rt.Post("/upload", r.wrap(r.handleUpload))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, routing.ErrNoProvider) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			var verr *middleware.ValidationError
			if errors.As(err, &verr) {
				http.Error(w, verr.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/{tenant}/analyze
// Body: {"content": "...", "content_type": "text", "task": "analyze",
//        "provider": "openai", "mode": "single"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return err
	}

	var body struct {
		Content     string `json:"content"`
		ContentType string `json:"content_type"`
		Task        string `json:"task"`
		Provider    string `json:"provider"`
		Mode        string `json:"mode"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return middleware.Invalid("malformed request body: %v", err)
	}

	if err := middleware.ValidateContent(body.Content); err != nil {
		return err
	}
	ct, err := middleware.ValidateContentType(body.ContentType)
	if err != nil {
		return err
	}
	task, err := middleware.ValidateTask(body.Task)
	if err != nil {
		return err
	}
	mode, err := middleware.ValidateMode(body.Mode)
	if err != nil {
		return err
	}
	if ct == domain.ContentURL {
		if err := middleware.ValidateURL(body.Content); err != nil {
			return err
		}
	}

	out, err := r.svc.Run(req.Context(), tenant, domain.Request{
		Content:           middleware.SanitizeString(body.Content),
		ContentType:       ct,
		Task:              task,
		PreferredProvider: body.Provider,
	}, appanalysis.Mode(mode))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(out)
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.Paginate(req.Context(), tenant, page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/analyses/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// POST /v1/{tenant}/upload
// Multipart form with a "file" part. The artifact is stored and its URL plus
// digest returned; clients then submit the URL as content for analysis.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return err
	}
	if r.storage == nil {
		http.Error(w, "uploads disabled", http.StatusNotImplemented)
		return nil
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		return middleware.Invalid("missing file part: %v", err)
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%d-%s", tenant, time.Now().UnixNano(), header.Filename)
	url, err := r.storage.Put(req.Context(), key, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"tenant":     tenant,
		"url":        url,
		"filename":   header.Filename,
		"size":       header.Size,
		"uploadedAt": time.Now(),
	})
}
