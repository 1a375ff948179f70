package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/models"
	"github.com/tenxcards/backend/utils"
)

// A generation call keeps at most this many proposals; the rest is dropped.
const maxProposals = 10

const flashcardPrompt = `Jesteś asystentem tworzącym fiszki edukacyjne. Na podstawie poniższego tekstu źródłowego przygotuj od 3 do 5 fiszek.
Każda fiszka to obiekt JSON z polami:
- "front": pytanie lub pojęcie (maksymalnie 200 znaków)
- "back": zwięzła odpowiedź lub wyjaśnienie (maksymalnie 500 znaków)
- "source": zawsze wartość "ai-full"
Zwróć TYLKO tablicę JSON, bez komentarzy i bez dodatkowego tekstu, na przykład:
[{"front": "Pytanie?", "back": "Odpowiedź", "source": "ai-full"}]

Tekst źródłowy:
%s`

// ChatClient is the transport the orchestrator speaks through.
type ChatClient interface {
	SendMessage(ctx context.Context, userID uuid.UUID, userMessage string) (*ParsedResponse, error)
	ModelName() string
}

type FlashcardProposal struct {
	Front  string `json:"front"`
	Back   string `json:"back"`
	Source string `json:"source"`
}

type GenerationDTO struct {
	GenerationID        uint                `json:"generation_id"`
	FlashcardsProposals []FlashcardProposal `json:"flashcards_proposals"`
	GeneratedCount      int                 `json:"generated_count"`
	ConfidenceScore     *float64            `json:"confidence_score,omitempty"`
}

// GenerationService orchestrates one generation call: prompt, transport,
// proposal validation, generation record. Every failure leaves exactly one
// generation_error_logs row behind (the transport writes its own for
// gateway/network failures).
type GenerationService struct {
	client ChatClient
	store  GenerationStore
	log    *logger.Logger
}

func NewGenerationService(client ChatClient, store GenerationStore, log *logger.Logger) *GenerationService {
	return &GenerationService{client: client, store: store, log: log}
}

func (s *GenerationService) GenerateFlashcards(ctx context.Context, userID uuid.UUID, sourceText string) (*GenerationDTO, error) {
	start := time.Now()

	dto, err := s.generate(ctx, userID, sourceText, start)
	if err != nil {
		s.logGenerationError(ctx, userID, sourceText, err)
		return nil, err
	}
	return dto, nil
}

func (s *GenerationService) generate(ctx context.Context, userID uuid.UUID, sourceText string, start time.Time) (*GenerationDTO, error) {
	prompt := fmt.Sprintf(flashcardPrompt, sourceText)

	response, err := s.client.SendMessage(ctx, userID, prompt)
	if err != nil {
		return nil, err
	}

	proposals, err := parseProposals(response.Answer)
	if err != nil {
		return nil, err
	}

	confidence := response.Confidence
	generation := &models.Generation{
		UserID:             userID,
		SourceTextLength:   utf8.RuneCountInString(sourceText),
		SourceTextHash:     utils.HashText(sourceText),
		Model:              s.client.ModelName(),
		GeneratedCount:     len(proposals),
		GenerationDuration: time.Since(start).Milliseconds(),
		ConfidenceScore:    &confidence,
	}
	if err := s.store.CreateGeneration(ctx, generation); err != nil {
		return nil, err
	}

	s.log.Info("generation completed",
		"generation_id", generation.ID,
		"generated_count", generation.GeneratedCount,
		"duration_ms", generation.GenerationDuration,
	)

	return &GenerationDTO{
		GenerationID:        generation.ID,
		FlashcardsProposals: proposals,
		GeneratedCount:      len(proposals),
		ConfidenceScore:     &confidence,
	}, nil
}

// parseProposals turns the model answer into validated proposals. A source
// value other than "ai-full" is rewritten, not rejected; anything beyond
// maxProposals is dropped.
func parseProposals(answer string) ([]FlashcardProposal, error) {
	cleaned := stripCodeFence(answer)

	var proposals []FlashcardProposal
	if err := json.Unmarshal([]byte(cleaned), &proposals); err != nil {
		return nil, &GenerationError{
			Message: "failed to parse flashcard proposals: " + err.Error(),
			Err:     err,
		}
	}
	if len(proposals) == 0 {
		return nil, &GenerationError{Message: "failed to parse flashcard proposals: model returned no proposals"}
	}

	for i := range proposals {
		if strings.TrimSpace(proposals[i].Front) == "" || strings.TrimSpace(proposals[i].Back) == "" {
			return nil, &GenerationError{
				Message: fmt.Sprintf("failed to parse flashcard proposals: proposal %d is missing front or back", i),
			}
		}
		if proposals[i].Source != models.SourceAIFull {
			proposals[i].Source = models.SourceAIFull
		}
	}

	if len(proposals) > maxProposals {
		proposals = proposals[:maxProposals]
	}
	return proposals, nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON in.
func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// logGenerationError records pipeline failures best-effort. Transport
// failures already produced a classified row in the transport layer, so only
// errors born in this service add one; an insert failure is logged and
// swallowed so the original error always reaches the caller.
func (s *GenerationService) logGenerationError(ctx context.Context, userID uuid.UUID, sourceText string, cause error) {
	var genErr *GenerationError
	var dbErr *DatabaseError
	var valErr *ValidationError
	if !errors.As(cause, &genErr) && !errors.As(cause, &dbErr) && !errors.As(cause, &valErr) {
		return
	}

	entry := &models.GenerationErrorLog{
		UserID:           userID,
		ErrorCode:        ErrCodeGeneration,
		ErrorMessage:     cause.Error(),
		Model:            s.client.ModelName(),
		SourceTextHash:   utils.HashText(sourceText),
		SourceTextLength: utf8.RuneCountInString(sourceText),
	}
	if err := s.store.CreateErrorLog(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error("failed to persist generation error log", err)
	}
}
