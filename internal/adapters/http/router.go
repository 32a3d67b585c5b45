package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/eco-invoice-tracker/internal/config"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
	"github.com/kirillkom/eco-invoice-tracker/internal/observability/metrics"
)

const serviceName = "api"

// FileTypeDetector resolves upload types to extractor kinds; "" means unsupported.
type FileTypeDetector interface {
	Kind(mimeType, filename string) string
}

type Router struct {
	cfg         config.Config
	uploader    ports.InvoiceUploader
	invoices    ports.InvoiceService
	reprocessor ports.InvoiceReprocessor
	materials   ports.MaterialService
	fileTypes   FileTypeDetector
	metrics     *metrics.HTTPServerMetrics
	validator   *requestValidator
}

func NewRouter(
	cfg config.Config,
	uploader ports.InvoiceUploader,
	invoices ports.InvoiceService,
	reprocessor ports.InvoiceReprocessor,
	materials ports.MaterialService,
) *Router {
	validator, err := newRequestValidator()
	if err != nil {
		panic(err)
	}
	return &Router{
		cfg:         cfg,
		uploader:    uploader,
		invoices:    invoices,
		reprocessor: reprocessor,
		materials:   materials,
		validator:   validator,
	}
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

// WithFileTypes rejects uploads the worker could not extract text from.
func (rt *Router) WithFileTypes(detector FileTypeDetector) *Router {
	rt.fileTypes = detector
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /v1/invoices", rt.uploadInvoice)
	mux.HandleFunc("GET /v1/invoices", rt.listInvoices)
	mux.HandleFunc("GET /v1/invoices/statistics", rt.invoiceStatistics)
	mux.HandleFunc("GET /v1/invoices/{id}", rt.getInvoice)
	mux.HandleFunc("DELETE /v1/invoices/{id}", rt.deleteInvoice)
	mux.HandleFunc("POST /v1/invoices/{id}/reprocess", rt.reprocessInvoice)

	mux.HandleFunc("GET /v1/materials", rt.listMaterials)
	mux.HandleFunc("GET /v1/materials/{material}/alternatives", rt.materialAlternatives)
	mux.HandleFunc("POST /v1/analyze", rt.analyzeText)

	var handler http.Handler = rt.validator.middleware(mux)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureMax)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.APIMaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.APIMaxUploadBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	kind := ""
	if rt.fileTypes != nil {
		kind = rt.fileTypes.Kind(mimeType, fileHeader.Filename)
		if kind == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("unsupported file type %q", fileHeader.Filename),
			})
			return
		}
	}

	invoice, err := rt.uploader.Upload(r.Context(), ownerFromRequest(r), fileHeader.Filename, mimeType, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, kind)
	}

	writeJSON(w, http.StatusAccepted, invoice)
}

func (rt *Router) listInvoices(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid limit: %v", err)})
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	invoices, err := rt.invoices.List(r.Context(), ownerFromRequest(r), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

func (rt *Router) invoiceStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.invoices.Statistics(r.Context(), ownerFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := bindPathParam(w, r, "id")
	if !ok {
		return
	}

	invoice, err := rt.invoices.Get(r.Context(), ownerFromRequest(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (rt *Router) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := bindPathParam(w, r, "id")
	if !ok {
		return
	}

	if err := rt.invoices.Delete(r.Context(), ownerFromRequest(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) reprocessInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := bindPathParam(w, r, "id")
	if !ok {
		return
	}

	invoice, err := rt.reprocessor.Reprocess(r.Context(), ownerFromRequest(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, invoice)
}

func (rt *Router) listMaterials(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"materials": rt.materials.Materials()})
}

func (rt *Router) materialAlternatives(w http.ResponseWriter, r *http.Request) {
	material, ok := bindPathParam(w, r, "material")
	if !ok {
		return
	}
	material = strings.ToLower(strings.TrimSpace(material))

	alternatives := rt.materials.Alternatives(material)
	if rt.metrics != nil {
		rt.metrics.RecordAlternativesRequest(serviceName, material, rt.knownMaterial(material))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"material":     material,
		"alternatives": alternatives,
	})
}

func (rt *Router) analyzeText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result := rt.materials.Analyze(r.Context(), req.Text)
	if rt.metrics != nil {
		rt.metrics.RecordAnalysis(serviceName, string(result.Status))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) knownMaterial(material string) bool {
	for _, profile := range rt.materials.Materials() {
		if profile.Material == material {
			return true
		}
	}
	return false
}

func bindPathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, r.PathValue(name), &value, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || strings.TrimSpace(value) == "" {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "bind path parameter",
			fmt.Errorf("%s is required", name)))
		return "", false
	}
	return value, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
