package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tenxcards/backend/models"
)

// fakeStore records inserts in memory and can be told to fail either write.
type fakeStore struct {
	mu sync.Mutex

	generations []*models.Generation
	errorLogs   []*models.GenerationErrorLog

	generationErr error
	errorLogErr   error

	nextID uint
}

func (f *fakeStore) CreateGeneration(_ context.Context, generation *models.Generation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generationErr != nil {
		return f.generationErr
	}
	f.nextID++
	generation.ID = f.nextID
	f.generations = append(f.generations, generation)
	return nil
}

func (f *fakeStore) CreateErrorLog(_ context.Context, entry *models.GenerationErrorLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errorLogErr != nil {
		return f.errorLogErr
	}
	f.errorLogs = append(f.errorLogs, entry)
	return nil
}

func (f *fakeStore) errorLogCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errorLogs)
}

// fakeChatClient answers from a canned response without any transport.
type fakeChatClient struct {
	response *ParsedResponse
	err      error

	calls       int
	lastMessage string
}

func (f *fakeChatClient) SendMessage(_ context.Context, _ uuid.UUID, message string) (*ParsedResponse, error) {
	f.calls++
	f.lastMessage = message
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeChatClient) ModelName() string { return "openai/gpt-4o-mini" }
