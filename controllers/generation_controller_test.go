package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/services"
)

type fakeGenerator struct {
	dto *services.GenerationDTO
	err error

	userID     uuid.UUID
	sourceText string
}

func (f *fakeGenerator) GenerateFlashcards(_ context.Context, userID uuid.UUID, sourceText string) (*services.GenerationDTO, error) {
	f.userID = userID
	f.sourceText = sourceText
	if f.err != nil {
		return nil, f.err
	}
	return f.dto, nil
}

func newGenerationRouter(generator FlashcardGenerator, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	gc := NewGenerationController(generator, nil, logger.NewNop())
	r.POST("/api/generations", func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		gc.Create(c)
	})
	return r
}

func postGeneration(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/generations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func generationBody(length int) string {
	raw, _ := json.Marshal(gin.H{"source_text": strings.Repeat("a", length)})
	return string(raw)
}

func TestCreateGenerationSuccess(t *testing.T) {
	userID := uuid.New()
	confidence := 0.9
	generator := &fakeGenerator{dto: &services.GenerationDTO{
		GenerationID: 12,
		FlashcardsProposals: []services.FlashcardProposal{
			{Front: "Q?", Back: "A", Source: "ai-full"},
		},
		GeneratedCount:  1,
		ConfidenceScore: &confidence,
	}}
	r := newGenerationRouter(generator, userID.String())

	w := postGeneration(r, generationBody(1000))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, userID, generator.userID)
	assert.Len(t, generator.sourceText, 1000)

	var dto services.GenerationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, uint(12), dto.GenerationID)
	assert.Equal(t, 1, dto.GeneratedCount)
}

func TestCreateGenerationRequiresAuth(t *testing.T) {
	generator := &fakeGenerator{}
	r := newGenerationRouter(generator, "")

	w := postGeneration(r, generationBody(1000))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, generator.sourceText)
}

func TestCreateGenerationRejectsShortText(t *testing.T) {
	generator := &fakeGenerator{}
	r := newGenerationRouter(generator, uuid.NewString())

	w := postGeneration(r, generationBody(999))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, generator.sourceText, "validation must fail before the pipeline runs")
}

func TestCreateGenerationRejectsLongText(t *testing.T) {
	generator := &fakeGenerator{}
	r := newGenerationRouter(generator, uuid.NewString())

	w := postGeneration(r, generationBody(10001))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateGenerationValidationErrorIs400(t *testing.T) {
	generator := &fakeGenerator{err: &services.ValidationError{Message: "user message cannot be empty"}}
	r := newGenerationRouter(generator, uuid.NewString())

	w := postGeneration(r, generationBody(1000))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "user message cannot be empty")
}

func TestCreateGenerationPipelineFailureIsOpaque500(t *testing.T) {
	generator := &fakeGenerator{err: &services.GatewayError{StatusCode: 500, Message: "api_key=SECRET123 rejected"}}
	r := newGenerationRouter(generator, uuid.NewString())

	w := postGeneration(r, generationBody(1000))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	assert.NotContains(t, w.Body.String(), "SECRET123", "upstream detail must not leak to clients")
}
