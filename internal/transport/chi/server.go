// Package chi implements the HTTP API on top of the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/catan-labs/catan/internal/domain"
	"github.com/catan-labs/catan/internal/domain/generation"
	"github.com/catan-labs/catan/internal/domain/search/result"
	"github.com/catan-labs/catan/internal/logger"
	"github.com/catan-labs/catan/internal/transport/api"
	healthuc "github.com/catan-labs/catan/internal/usecase/health"
	"github.com/catan-labs/catan/internal/usecase/rag"
	"github.com/catan-labs/catan/internal/version"
)

// Fixed client-facing failure messages. Causes are logged, never returned.
const (
	searchFailedDetail  = "An error occurred while processing your search request"
	analyzeFailedDetail = "An error occurred while processing the document"
	bodyTooLargeDetail  = "Request body too large"
)

// RAG is the retrieval-and-generation service the API delegates to.
type RAG interface {
	SearchSimilarDocuments(ctx context.Context, query, collection string, limit int) ([]result.Result, error)
	GenerateResponse(ctx context.Context, query string, contextDocs []string, systemPrompt string) (generation.Result, error)
	ProcessAndIndexDocument(
		ctx context.Context, content string, metadata map[string]any, collection string,
	) (domain.IndexResult, error)
}

// Readiness reports dependency health.
type Readiness interface {
	Check(ctx context.Context) healthuc.Report
}

// Server implements api.ServerInterface.
type Server struct {
	rag              RAG
	health           Readiness
	maxContentLength int64
	systemPrompt     string
	logger           *zap.Logger
}

var _ api.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(svc RAG, health Readiness, maxContentLength int64, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		rag:              svc,
		health:           health,
		maxContentLength: maxContentLength,
		systemPrompt:     rag.DefaultSystemPrompt,
		logger:           logger,
	}
}

// GetStatus handles GET /.
func (s *Server) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.StatusResponse{
		Status:  "operational",
		Service: version.ServiceName,
		Version: version.Version,
	})
}

// Health handles GET /health. Liveness only.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "healthy"})
}

// Ready handles GET /ready.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, api.ReadyResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Search handles GET /api/v1/search/.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, params api.SearchParams) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	log := logger.FromContext(ctx, s.logger)

	results, err := s.rag.SearchSimilarDocuments(ctx, params.Q, params.CollectionOrDefault(), params.LimitOrDefault())
	if err != nil {
		log.Error("Search failed", zap.String("collection", params.CollectionOrDefault()), zap.Error(err))
		setEmbeddingHeaders(w, usage)
		writeError(w, http.StatusInternalServerError, searchFailedDetail)
		return
	}

	resp := api.SearchResponse{Results: make([]api.SearchResult, len(results))}
	contextDocs := make([]string, len(results))
	for i := range results {
		resp.Results[i] = searchResultToAPI(&results[i])
		contextDocs[i] = results[i].Content()
	}

	if params.UseLLMOrDefault() {
		gen, err := s.rag.GenerateResponse(ctx, params.Q, contextDocs, s.systemPrompt)
		if err != nil {
			log.Error("Search failed", zap.Bool("use_llm", true), zap.Error(err))
			setEmbeddingHeaders(w, usage)
			writeError(w, http.StatusInternalServerError, searchFailedDetail)
			return
		}
		resp.LLMResponse = &api.GenerationResult{
			Response: gen.Response,
			Metadata: api.GenerationMetadata{
				Model:      gen.Model,
				TokensUsed: gen.Usage.Map(),
			},
		}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// Analyze handles POST /api/v1/search/analyze.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request, params api.AnalyzeParams) {
	if s.maxContentLength > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxContentLength)
	}

	var req api.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, bodyTooLargeDetail)
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "Request body is required")
		default:
			writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		}
		return
	}
	if req.Content == nil {
		writeError(w, http.StatusBadRequest, "content: field required")
		return
	}
	if req.Metadata == nil {
		writeError(w, http.StatusBadRequest, "metadata: field required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	collection := params.CollectionOrDefault()

	res, err := s.rag.ProcessAndIndexDocument(ctx, *req.Content, req.Metadata, collection)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("Analyze failed", zap.String("collection", collection), zap.Error(err))
		setEmbeddingHeaders(w, usage)
		writeError(w, http.StatusInternalServerError, analyzeFailedDetail)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, api.IndexResponse{
		Status:          res.Status,
		ChunksProcessed: res.ChunksProcessed,
		Collection:      res.Collection,
	})
}

// BadRequest renders a query binding failure. Used as api.ChiServerOptions.ErrorHandlerFunc.
func BadRequest(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

func searchResultToAPI(r *result.Result) api.SearchResult {
	meta := r.Metadata()
	if meta == nil {
		meta = map[string]any{}
	}
	return api.SearchResult{Content: r.Content(), Metadata: meta, Score: r.Score()}
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, api.ErrorResponse{Detail: detail})
}
