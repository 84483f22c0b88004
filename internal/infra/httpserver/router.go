package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appsub "github.com/bryanwahyu/partner-review/internal/application/submissions"
	"github.com/bryanwahyu/partner-review/internal/domain/ai"
	"github.com/bryanwahyu/partner-review/internal/domain/controls"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
	"github.com/bryanwahyu/partner-review/internal/infra/codec"
	"github.com/bryanwahyu/partner-review/internal/middleware"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	// multipart parts above this spill to disk
	multipartMemory = 32 << 20
	maxAnalysisBody = 8 << 20
)

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	RateLimit      int // requests per minute per reviewer+ip
	Health         map[string]middleware.HealthChecker
	// MaxUploadBytes bounds the whole multipart body
	MaxUploadBytes int64
}

type Router struct {
	svc     *appsub.Service
	catalog controls.Catalog
	opts    Options
}

func NewRouter(svc *appsub.Service, catalog controls.Catalog, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 200 << 20
	}
	r := &Router{svc: svc, catalog: catalog, opts: opts}
	mux := chi.NewRouter()

	mux.Use(middleware.ReviewerIdentity)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(opts.RateLimit))
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.ReviewerHeader},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/ready", middleware.ReadinessHandler(opts.Health))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/controls", r.wrap(r.handleControls))

		rt.Route("/submissions", func(rt chi.Router) {
			rt.Post("/", r.wrap(r.handleCreate))
			rt.Get("/", r.wrap(r.handleList))
			rt.Get("/stats", r.wrap(r.handleStats))

			rt.Route("/{id}", func(rt chi.Router) {
				rt.Get("/", r.wrap(r.handleGet))
				rt.Get("/report", r.wrap(r.handleReport))
				rt.Get("/audit", r.wrap(r.handleAudit))
				rt.Post("/process", r.wrap(r.handleProcess))
				rt.Post("/analysis", r.wrap(r.handleAttach))
				rt.Post("/controls/{controlID}/decision", r.wrap(r.handleDecision))
				rt.Post("/approve", r.wrap(r.handleApprove))
				rt.Post("/reject", r.wrap(r.handleReject))
			})
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest is a malformed request, before any domain rule ran
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return badRequest{msg: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(err)
		body := errorBody{Error: err.Error()}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			body.Fields = verr.Fields
		}
		if status >= http.StatusInternalServerError {
			slog.Error("request failed", "method", req.Method, "path", req.URL.Path, "status", status, "error", err)
		}
		writeJSON(w, status, body)
	}
}

func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidScore):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSubmissionNotFound), errors.Is(err, domain.ErrControlNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTerminalState), errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrPendingControls):
		return http.StatusConflict
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrExternalStore):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

// POST /v1/submissions (multipart/form-data)
// fields: partner_name, salesforce_id, validation_type, competency_category
// files:  self_assessment, additional_files (repeatable)
func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxUploadBytes)
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		return badRequestf("invalid multipart body: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	in := domain.Intake{
		PartnerName:        middleware.SanitizeString(req.FormValue("partner_name")),
		SalesforceID:       middleware.SanitizeString(req.FormValue("salesforce_id")),
		ValidationType:     middleware.SanitizeString(req.FormValue("validation_type")),
		CompetencyCategory: middleware.SanitizeString(req.FormValue("competency_category")),
	}
	if fh := req.MultipartForm.File["self_assessment"]; len(fh) > 0 {
		a, err := readArtifact(fh[0])
		if err != nil {
			return err
		}
		in.SelfAssessment = &a
	}
	for _, fh := range req.MultipartForm.File["additional_files"] {
		a, err := readArtifact(fh)
		if err != nil {
			return err
		}
		in.AdditionalFiles = append(in.AdditionalFiles, a)
	}

	sub, err := r.svc.CreateSubmission(req.Context(), in)
	if err != nil {
		return err
	}
	middleware.IncrementSubmissions()
	writeJSON(w, http.StatusCreated, sub)
	return nil
}

func readArtifact(fh *multipart.FileHeader) (domain.Artifact, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Artifact{}, badRequestf("open %s: %v", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Artifact{}, badRequestf("read %s: %v", fh.Filename, err)
	}
	return domain.Artifact{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// GET /v1/submissions?q=&limit=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	q := middleware.SanitizeString(req.URL.Query().Get("q"))
	limit := middleware.ParseLimit(req.URL.Query().Get("limit"), defaultListLimit, maxListLimit)

	list, err := r.svc.ListAll(req.Context(), q, limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list, "count": len(list)})
	return nil
}

// GET /v1/submissions/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	counts, err := r.svc.StatusCounts(req.Context())
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{"by_status": counts, "total": total})
	return nil
}

// GET /v1/submissions/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := submissionID(req)
	if err != nil {
		return err
	}
	view, err := r.svc.GetSubmissionWithValidationView(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, view)
	return nil
}

// GET /v1/submissions/{id}/report
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	id, err := submissionID(req)
	if err != nil {
		return err
	}
	rep, err := r.svc.Report(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rep)
	return nil
}

// GET /v1/submissions/{id}/audit?limit=
func (r *Router) handleAudit(w http.ResponseWriter, req *http.Request) error {
	id, err := submissionID(req)
	if err != nil {
		return err
	}
	limit := middleware.ParseLimit(req.URL.Query().Get("limit"), 20, 200)
	entries, err := r.svc.History(req.Context(), id, limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, entries)
	return nil
}

// POST /v1/submissions/{id}/process
func (r *Router) handleProcess(w http.ResponseWriter, req *http.Request) error {
	id, err := submissionID(req)
	if err != nil {
		return err
	}
	sub, err := r.svc.RequestProcessing(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"submission_id": sub.ID,
		"status":        sub.Status,
		"message":       "analysis started in background",
	})
	return nil
}

// POST /v1/submissions/{id}/analysis
// Body: assessment list in any supported dialect (canonical, legacy, DynamoDB)
func (r *Router) handleAttach(w http.ResponseWriter, req *http.Request) error {
	id, err := submissionID(req)
	if err != nil {
		return err
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxAnalysisBody))
	if err != nil {
		return badRequestf("read body: %v", err)
	}
	list, err := codec.DecodeControls(raw)
	if err != nil {
		return badRequest{msg: err.Error()}
	}
	sub, err := r.svc.AttachAnalysisResults(req.Context(), id, list)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sub)
	return nil
}

// POST /v1/submissions/{id}/controls/{controlID}/decision
// Body: {"decision": "pass|fail", "notes": "...", "reviewer": "..."}
func (r *Router) handleDecision(w http.ResponseWriter, req *http.Request) error {
	id, err := submissionID(req)
	if err != nil {
		return err
	}
	controlID := chi.URLParam(req, "controlID")
	if err := middleware.ValidateControlID(controlID); err != nil {
		return badRequest{msg: err.Error()}
	}

	var body struct {
		Decision string `json:"decision"`
		Notes    string `json:"notes"`
		Reviewer string `json:"reviewer"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequestf("invalid json: %v", err)
	}
	d, ok := domain.ParseDecision(strings.ToLower(strings.TrimSpace(body.Decision)))
	if !ok {
		return badRequestf("decision must be pass or fail, got %q", body.Decision)
	}

	sub, err := r.svc.RecordControlDecision(req.Context(), id, controlID, d,
		middleware.SanitizeString(body.Notes), reviewer(req, body.Reviewer))
	if err != nil {
		return err
	}
	middleware.IncrementDecisions()
	if sub.Status.Terminal() {
		middleware.IncrementClosed()
	}
	writeJSON(w, http.StatusOK, sub)
	return nil
}

// POST /v1/submissions/{id}/approve
func (r *Router) handleApprove(w http.ResponseWriter, req *http.Request) error {
	id, err := submissionID(req)
	if err != nil {
		return err
	}
	sub, err := r.svc.ApproveSubmission(req.Context(), id, reviewer(req, ""))
	if err != nil {
		return err
	}
	middleware.IncrementClosed()
	writeJSON(w, http.StatusOK, sub)
	return nil
}

// POST /v1/submissions/{id}/reject
func (r *Router) handleReject(w http.ResponseWriter, req *http.Request) error {
	id, err := submissionID(req)
	if err != nil {
		return err
	}
	sub, err := r.svc.RejectSubmission(req.Context(), id, reviewer(req, ""))
	if err != nil {
		return err
	}
	middleware.IncrementClosed()
	writeJSON(w, http.StatusOK, sub)
	return nil
}

// GET /v1/controls?category=
func (r *Router) handleControls(w http.ResponseWriter, req *http.Request) error {
	list := r.catalog.ForCategory(req.URL.Query().Get("category"))
	writeJSON(w, http.StatusOK, list)
	return nil
}

func submissionID(req *http.Request) (domain.SubmissionID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSubmissionID(id); err != nil {
		return "", badRequest{msg: err.Error()}
	}
	return domain.SubmissionID(id), nil
}

// reviewer prefers the gateway-asserted identity over the body field,
// falling back to anonymous
func reviewer(req *http.Request, fromBody string) string {
	if who := middleware.GetReviewerFromContext(req.Context()); who != "" {
		return who
	}
	if who := middleware.ReviewerName(fromBody); who != "" {
		return who
	}
	return middleware.AnonymousReviewer
}
