package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/tokenscope/internal/analysis"
	"github.com/irfndi/tokenscope/internal/logging"
	"github.com/irfndi/tokenscope/internal/middleware"
	"github.com/irfndi/tokenscope/internal/models"
)

// statusClientClosedRequest is written when the caller went away mid-analysis.
const statusClientClosedRequest = 499

type AnalysisHandler struct {
	analyzer analysis.Analyzer
	logger   logrus.FieldLogger
}

// analysisRequestBody accepts both the current keys and the legacy
// {tokenAddress, prompt} keys used by older widgets.
type analysisRequestBody struct {
	TokenIdentifier string `json:"tokenIdentifier"`
	UserPrompt      string `json:"userPrompt"`
	TokenAddress    string `json:"tokenAddress"`
	Prompt          string `json:"prompt"`
}

func (b analysisRequestBody) toRequest() models.AnalysisRequest {
	req := models.AnalysisRequest{
		TokenIdentifier: b.TokenIdentifier,
		UserPrompt:      b.UserPrompt,
	}
	if strings.TrimSpace(req.TokenIdentifier) == "" {
		req.TokenIdentifier = b.TokenAddress
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		req.UserPrompt = b.Prompt
	}
	return req
}

func NewAnalysisHandler(analyzer analysis.Analyzer, logger logrus.FieldLogger) *AnalysisHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AnalysisHandler{
		analyzer: analyzer,
		logger:   logging.WithComponent(logger, "analysis_handler"),
	}
}

// Analyze runs one analysis and maps failures onto 400, 404 or 500.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var body analysisRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req := body.toRequest()
	middleware.AddSpanAttribute(c, "analysis.token", logging.ShortToken(strings.TrimSpace(req.TokenIdentifier)))

	result, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AnalysisHandler) writeError(c *gin.Context, err error) {
	ae, ok := analysis.AsError(err)
	if !ok {
		middleware.RecordError(c, err, "unexpected analysis error")
		logging.WithRequestID(h.logger, middleware.GetRequestID(c)).WithError(err).Error("Unexpected analysis error")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "An unexpected error occurred"})
		return
	}

	if ae.Kind == analysis.KindCancelled {
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	status := ae.HTTPStatus()
	if status >= http.StatusInternalServerError {
		middleware.RecordError(c, err, string(ae.Kind))
	}
	c.JSON(status, models.ErrorResponse{Error: ae.Message})
}
