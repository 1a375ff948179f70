package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/utils"
)

func proposalsJSON(n int) string {
	proposals := make([]FlashcardProposal, 0, n)
	for i := 0; i < n; i++ {
		proposals = append(proposals, FlashcardProposal{
			Front:  fmt.Sprintf("Question %d?", i+1),
			Back:   fmt.Sprintf("Answer %d", i+1),
			Source: "ai-full",
		})
	}
	raw, _ := json.Marshal(proposals)
	return string(raw)
}

func newGenerationService(client ChatClient, store GenerationStore) *GenerationService {
	return NewGenerationService(client, store, logger.NewNop())
}

func TestGenerateFlashcardsEndToEnd(t *testing.T) {
	sourceText := strings.Repeat("a", 1000)
	client := &fakeChatClient{response: &ParsedResponse{Answer: proposalsJSON(3), Confidence: 0.9}}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	userID := uuid.New()
	dto, err := svc.GenerateFlashcards(t.Context(), userID, sourceText)
	require.NoError(t, err)

	assert.Contains(t, client.lastMessage, sourceText, "prompt must embed the source text")
	assert.Contains(t, client.lastMessage, "ai-full")

	assert.Equal(t, 3, dto.GeneratedCount)
	require.Len(t, dto.FlashcardsProposals, 3)
	require.NotNil(t, dto.ConfidenceScore)
	assert.InDelta(t, 0.9, *dto.ConfidenceScore, 1e-9)

	require.Len(t, store.generations, 1)
	record := store.generations[0]
	assert.Equal(t, dto.GenerationID, record.ID)
	assert.Equal(t, userID, record.UserID)
	assert.Equal(t, 1000, record.SourceTextLength)
	assert.Equal(t, utils.HashText(sourceText), record.SourceTextHash)
	assert.Equal(t, "openai/gpt-4o-mini", record.Model)
	assert.Equal(t, 3, record.GeneratedCount)
	assert.GreaterOrEqual(t, record.GenerationDuration, int64(0))

	assert.Equal(t, 0, store.errorLogCount())
}

func TestGenerateFlashcardsStripsCodeFence(t *testing.T) {
	answer := "```json\n" + proposalsJSON(3) + "\n```"
	client := &fakeChatClient{response: &ParsedResponse{Answer: answer, Confidence: 1.0}}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	dto, err := svc.GenerateFlashcards(t.Context(), uuid.New(), strings.Repeat("b", 1000))
	require.NoError(t, err)
	assert.Equal(t, 3, dto.GeneratedCount)
}

func TestGenerateFlashcardsNormalizesForeignSource(t *testing.T) {
	answer := `[{"front":"Q?","back":"A","source":"weird"},{"front":"Q2?","back":"A2","source":"manual"}]`
	client := &fakeChatClient{response: &ParsedResponse{Answer: answer, Confidence: 1.0}}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	dto, err := svc.GenerateFlashcards(t.Context(), uuid.New(), strings.Repeat("c", 1200))
	require.NoError(t, err)
	for _, proposal := range dto.FlashcardsProposals {
		assert.Equal(t, "ai-full", proposal.Source)
	}
}

func TestGenerateFlashcardsTruncatesToTen(t *testing.T) {
	client := &fakeChatClient{response: &ParsedResponse{Answer: proposalsJSON(15), Confidence: 1.0}}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	dto, err := svc.GenerateFlashcards(t.Context(), uuid.New(), strings.Repeat("d", 1500))
	require.NoError(t, err)
	assert.Equal(t, 10, dto.GeneratedCount)
	assert.Len(t, dto.FlashcardsProposals, 10)
	assert.Equal(t, 10, store.generations[0].GeneratedCount)
}

func TestGenerateFlashcardsRejectsEmptyArray(t *testing.T) {
	client := &fakeChatClient{response: &ParsedResponse{Answer: "[]", Confidence: 1.0}}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	sourceText := strings.Repeat("e", 1000)
	_, err := svc.GenerateFlashcards(t.Context(), uuid.New(), sourceText)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)

	require.Equal(t, 1, store.errorLogCount(), "a failed generation must write exactly one error log row")
	entry := store.errorLogs[0]
	assert.Equal(t, ErrCodeGeneration, entry.ErrorCode)
	assert.Equal(t, utils.HashText(sourceText), entry.SourceTextHash)
	assert.Equal(t, 1000, entry.SourceTextLength)
}

func TestGenerateFlashcardsRejectsInvalidJSON(t *testing.T) {
	client := &fakeChatClient{response: &ParsedResponse{Answer: "the model rambled instead", Confidence: 1.0}}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	_, err := svc.GenerateFlashcards(t.Context(), uuid.New(), strings.Repeat("f", 1000))

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, err.Error(), "failed to parse flashcard proposals")
	assert.Equal(t, 1, store.errorLogCount())
}

func TestGenerateFlashcardsRejectsObjectAnswer(t *testing.T) {
	client := &fakeChatClient{response: &ParsedResponse{Answer: `{"front":"Q?","back":"A"}`, Confidence: 1.0}}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	_, err := svc.GenerateFlashcards(t.Context(), uuid.New(), strings.Repeat("g", 1000))

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestGenerateFlashcardsRejectsMissingFront(t *testing.T) {
	answer := `[{"front":"","back":"A","source":"ai-full"}]`
	client := &fakeChatClient{response: &ParsedResponse{Answer: answer, Confidence: 1.0}}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	_, err := svc.GenerateFlashcards(t.Context(), uuid.New(), strings.Repeat("h", 1000))

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, err.Error(), "missing front or back")
	assert.Equal(t, 1, store.errorLogCount())
}

func TestGenerateFlashcardsTransportFailurePassesThrough(t *testing.T) {
	gwErr := &GatewayError{StatusCode: 500, Message: "upstream exploded"}
	client := &fakeChatClient{err: gwErr}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	_, err := svc.GenerateFlashcards(t.Context(), uuid.New(), strings.Repeat("i", 1000))
	require.ErrorIs(t, err, gwErr)

	// The transport layer persists its own classified row for gateway
	// failures; the orchestrator must not add a duplicate.
	assert.Equal(t, 0, store.errorLogCount())
}

func TestGenerateFlashcardsDatabaseFailure(t *testing.T) {
	client := &fakeChatClient{response: &ParsedResponse{Answer: proposalsJSON(3), Confidence: 1.0}}
	store := &fakeStore{generationErr: &DatabaseError{Op: "insert generation", Err: fmt.Errorf("connection refused")}}
	svc := newGenerationService(client, store)

	_, err := svc.GenerateFlashcards(t.Context(), uuid.New(), strings.Repeat("j", 1000))

	var dbErr *DatabaseError
	require.ErrorAs(t, err, &dbErr)
	require.Equal(t, 1, store.errorLogCount())
	assert.Equal(t, ErrCodeGeneration, store.errorLogs[0].ErrorCode)
}

func TestGenerateFlashcardsErrorLogFailureDoesNotMaskError(t *testing.T) {
	client := &fakeChatClient{response: &ParsedResponse{Answer: "[]", Confidence: 1.0}}
	store := &fakeStore{errorLogErr: fmt.Errorf("log table unavailable")}
	svc := newGenerationService(client, store)

	_, err := svc.GenerateFlashcards(t.Context(), uuid.New(), strings.Repeat("k", 1000))

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr, "the original error must survive a failed error-log insert")
}

func TestParseProposalsCountsRunesNotBytes(t *testing.T) {
	sourceText := strings.Repeat("ż", 1000)
	client := &fakeChatClient{response: &ParsedResponse{Answer: proposalsJSON(3), Confidence: 1.0}}
	store := &fakeStore{}
	svc := newGenerationService(client, store)

	_, err := svc.GenerateFlashcards(t.Context(), uuid.New(), sourceText)
	require.NoError(t, err)
	assert.Equal(t, 1000, store.generations[0].SourceTextLength)
}
