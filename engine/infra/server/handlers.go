package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verdicthq/verdict/engine/answer"
	"github.com/verdicthq/verdict/engine/graph"
	"github.com/verdicthq/verdict/engine/infra/server/router"
	"github.com/verdicthq/verdict/engine/orchestrator"
	"github.com/verdicthq/verdict/pkg/logger"
)

// AskRequest is the question payload.
type AskRequest struct {
	Question string         `json:"question" binding:"required" example:"What treats a headache?"`
	Refine   bool           `json:"refine,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// IngestRequest points the ingest pipeline at a directory tree.
type IngestRequest struct {
	Path string `json:"path" binding:"required" example:"./data"`
}

// RoutesResponse lists the configured exact-match routes.
type RoutesResponse struct {
	Routes []orchestrator.Route `json:"routes"`
	Count  int                  `json:"count"`
}

// HealthResponse reports component readiness.
type HealthResponse struct {
	Status           string      `json:"status"`
	Backends         []string    `json:"backends"`
	VectorStoreReady bool        `json:"vector_store_ready"`
	Graph            graph.Stats `json:"graph"`
}

// askQuestion godoc
//
//	@Summary		Answer a question
//	@Description	Runs the question through exact-match routing, backend fanout and fallback escalation, returning a single response envelope.
//	@Tags			questions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AskRequest	true	"Question to answer"
//	@Success		200		{object}	answer.Envelope
//	@Failure		400		{object}	core.ProblemDocument
//	@Router			/questions [post]
func (s *Server) askQuestion(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondProblemWithCode(c, http.StatusBadRequest, "invalid_question", err.Error())
		return
	}
	ctx := c.Request.Context()
	var opts []orchestrator.QueryOption
	if len(req.Meta) > 0 {
		opts = append(opts, orchestrator.WithBackendMeta(req.Meta))
	}
	env := s.deps.Orchestrator.HandleQuestion(ctx, req.Question, opts...)
	if req.Refine {
		env = s.refineAnswer(c, req.Question, env)
	}
	c.JSON(http.StatusOK, env)
}

// refineAnswer polishes the envelope text when a generative service is
// wired. Best-effort: the raw answer survives any refinement failure.
func (s *Server) refineAnswer(c *gin.Context, question string, env answer.Envelope) answer.Envelope {
	if s.deps.Generative == nil || env.IsError() {
		return env
	}
	ctx := c.Request.Context()
	refined, err := s.deps.Generative.Refine(ctx, question, env.Answer)
	if err != nil {
		logger.FromContext(ctx).Warn("Answer refinement failed", "error", err)
		return env
	}
	return env.WithAnswer(refined)
}

// ingestDocuments godoc
//
//	@Summary		Ingest a document directory
//	@Description	Loads, chunks, embeds and persists every supported document under the given directory.
//	@Tags			ingest
//	@Accept			json
//	@Produce		json
//	@Param			request	body		IngestRequest	true	"Directory to ingest"
//	@Success		200		{object}	ingest.Result
//	@Failure		400		{object}	core.ProblemDocument
//	@Failure		500		{object}	core.ProblemDocument
//	@Router			/ingest [post]
func (s *Server) ingestDocuments(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondProblemWithCode(c, http.StatusBadRequest, "invalid_ingest_request", err.Error())
		return
	}
	result, err := s.deps.Ingest.IngestDirectory(c.Request.Context(), req.Path)
	if err != nil {
		router.RespondProblemWithCode(c, http.StatusInternalServerError, "ingest_failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// listRoutes godoc
//
//	@Summary		List exact-match routes
//	@Description	Returns the configured literal-question routes that bypass backend fanout.
//	@Tags			routes
//	@Produce		json
//	@Success		200	{object}	RoutesResponse
//	@Router			/routes [get]
func (s *Server) listRoutes(c *gin.Context) {
	entries := s.deps.Orchestrator.Routes().Entries()
	c.JSON(http.StatusOK, RoutesResponse{Routes: entries, Count: len(entries)})
}

// health godoc
//
//	@Summary		Component readiness
//	@Tags			Operations
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/healthz [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:           "ok",
		Backends:         s.deps.Orchestrator.Backends(),
		VectorStoreReady: s.deps.Similarity.Ready(),
		Graph:            s.deps.Graph.Stats(),
	})
}
