package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/tokenscope/internal/analysis"
	"github.com/irfndi/tokenscope/internal/models"
)

const testToken = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*models.AnalysisResult)
	return result, args.Error(1)
}

func performAnalysis(t *testing.T, analyzer analysis.Analyzer, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/api/v1/analysis", NewAnalysisHandler(analyzer, nil).Analyze)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAnalysisHandler_Success(t *testing.T) {
	analyzer := new(mockAnalyzer)
	result := &models.AnalysisResult{
		NarrativeText: "Bearish short-term.",
		Snapshot:      models.MarketSnapshot{Symbol: "BONK", PriceChange24hPct: "-5.2"},
	}
	analyzer.On("Analyze", mock.Anything, models.AnalysisRequest{
		TokenIdentifier: testToken,
		UserPrompt:      "risks?",
	}).Return(result, nil).Once()

	w := performAnalysis(t, analyzer, `{"tokenIdentifier":"`+testToken+`","userPrompt":"risks?"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Bearish short-term.", body["analysis"])
	snapshot, ok := body["marketSnapshot"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "BONK", snapshot["symbol"])
	analyzer.AssertExpectations(t)
}

func TestAnalysisHandler_LegacyKeys(t *testing.T) {
	analyzer := new(mockAnalyzer)
	analyzer.On("Analyze", mock.Anything, models.AnalysisRequest{
		TokenIdentifier: testToken,
		UserPrompt:      "legacy prompt",
	}).Return(&models.AnalysisResult{NarrativeText: "ok"}, nil).Once()

	w := performAnalysis(t, analyzer, `{"tokenAddress":"`+testToken+`","prompt":"legacy prompt"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	analyzer.AssertExpectations(t)
}

func TestAnalysisHandler_InvalidBody(t *testing.T) {
	analyzer := new(mockAnalyzer)

	w := performAnalysis(t, analyzer, `{"tokenIdentifier":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, w))
	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid input", &analysis.Error{Kind: analysis.KindInvalidInput, Message: "tokenIdentifier: token address is required"}, http.StatusBadRequest, "tokenIdentifier: token address is required"},
		{"not found", &analysis.Error{Kind: analysis.KindNotFound, Message: "No trading pairs found for this token"}, http.StatusNotFound, "No trading pairs found for this token"},
		{"misconfigured", &analysis.Error{Kind: analysis.KindMisconfigured, Message: "OpenAI API key not configured"}, http.StatusInternalServerError, "OpenAI API key not configured"},
		{"upstream", &analysis.Error{Kind: analysis.KindUpstreamUnavailable, Status: 502, Message: "Failed to fetch token data from DexScreener (status 502)"}, http.StatusInternalServerError, "Failed to fetch token data from DexScreener (status 502)"},
		{"inference", &analysis.Error{Kind: analysis.KindInferenceFailed, Message: "model overloaded"}, http.StatusInternalServerError, "model overloaded"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := new(mockAnalyzer)
			analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			w := performAnalysis(t, analyzer, `{"tokenIdentifier":"`+testToken+`"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w))
		})
	}
}

func TestAnalysisHandler_CancelledWritesNoBody(t *testing.T) {
	analyzer := new(mockAnalyzer)
	analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, &analysis.Error{Kind: analysis.KindCancelled, Message: "analysis request cancelled"}).Once()

	w := performAnalysis(t, analyzer, `{"tokenIdentifier":"`+testToken+`"}`)

	assert.Equal(t, statusClientClosedRequest, w.Code)
	assert.Empty(t, w.Body.String())
}
