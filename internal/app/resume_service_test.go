package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio-backend/internal/ai"
	"portfolio-backend/internal/history"
	"portfolio-backend/internal/ingest"
	"portfolio-backend/internal/model"
	"portfolio-backend/internal/vectorstore"
)

// wordEmbedder gives each vocabulary word its own axis so nearest-chunk
// retrieval is predictable in tests.
type wordEmbedder struct {
	vocab []string
}

func (e *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab)+1)
	for i, word := range e.vocab {
		if strings.Contains(lower, word) {
			vec[i] = 1
		}
	}
	vec[len(e.vocab)] = 0.01
	return vec, nil
}

func (e *wordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// scriptedChat replays canned responses and records every request.
type scriptedChat struct {
	responses []*ai.ChatMessage
	err       error
	requests  [][]ai.ChatMessage
	toolSets  [][]ai.Tool
}

func (c *scriptedChat) CompleteWithTools(_ context.Context, _ ai.ChatConfig, messages []ai.ChatMessage, tools []ai.Tool) (*ai.ChatMessage, error) {
	c.requests = append(c.requests, messages)
	c.toolSets = append(c.toolSets, tools)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return &ai.ChatMessage{Role: "assistant", Content: "out of script"}, nil
	}
	next := c.responses[0]
	c.responses = c.responses[1:]
	return next, nil
}

type memHistory struct {
	turns     map[string][]history.Turn
	recentErr error
	appendErr error
}

func newMemHistory() *memHistory {
	return &memHistory{turns: map[string][]history.Turn{}}
}

func (m *memHistory) Append(_ context.Context, sessionID string, turn history.Turn) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.turns[sessionID] = append(m.turns[sessionID], turn)
	return nil
}

func (m *memHistory) Recent(_ context.Context, sessionID string, limit int) ([]history.Turn, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	turns := m.turns[sessionID]
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

func (m *memHistory) Clear(_ context.Context, sessionID string) error {
	delete(m.turns, sessionID)
	return nil
}

type memPublisher struct {
	published []model.Turn
}

func (p *memPublisher) Publish(_ context.Context, turn model.Turn) error {
	p.published = append(p.published, turn)
	return nil
}

func toolCallResponse(query string) *ai.ChatMessage {
	return &ai.ChatMessage{
		Role: "assistant",
		ToolCalls: []ai.ToolCall{{
			ID:   "call-1",
			Type: "function",
			Function: ai.FunctionDetails{
				Name:      "search_resume",
				Arguments: `{"query":` + quoteJSON(query) + `}`,
			},
		}},
	}
}

func quoteJSON(s string) string { return `"` + s + `"` }

type fixture struct {
	service   *ResumeService
	chat      *scriptedChat
	hist      *memHistory
	publisher *memPublisher
	vectorDir string
}

func newFixture(t *testing.T, chat *scriptedChat) *fixture {
	t.Helper()
	hist := newMemHistory()
	publisher := &memPublisher{}
	vectorDir := filepath.Join(t.TempDir(), "vectors")
	service := NewResumeService(
		ingest.New(t.TempDir()),
		vectorstore.NewStore(vectorDir),
		&wordEmbedder{vocab: []string{"python", "rust", "experience", "kayaking"}},
		chat,
		ai.ChatConfig{Model: "test-model"},
		hist,
		publisher,
		zap.NewNop(),
		ResumeOptions{ChunkSize: 100, ChunkOverlap: 20, TopK: 3, HistoryTurns: 5, ToolCallLimit: 3},
	)
	return &fixture{service: service, chat: chat, hist: hist, publisher: publisher, vectorDir: vectorDir}
}

func TestAnswer_NoResumeLoaded(t *testing.T) {
	f := newFixture(t, &scriptedChat{})
	_, err := f.service.Answer(context.Background(), "s1", "anything there?")
	assert.ErrorIs(t, err, ErrNoResumeLoaded)
}

func TestAnswer_SessionMissing(t *testing.T) {
	f := newFixture(t, &scriptedChat{})
	_, err := f.service.Answer(context.Background(), "  ", "question")
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	f := newFixture(t, &scriptedChat{})
	_, err := f.service.Answer(context.Background(), "s1", "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUploadAndAnswer_EndToEnd(t *testing.T) {
	ctx := context.Background()
	chat := &scriptedChat{responses: []*ai.ChatMessage{
		toolCallResponse("python experience"),
		{Role: "assistant", Content: "Pubali has 5 years of Python experience."},
	}}
	f := newFixture(t, chat)

	result, err := f.service.Upload(ctx, "resume.txt",
		strings.NewReader("Pubali has 5 years of Python experience."))
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunkCount)

	answer, err := f.service.Answer(ctx, "visitor-1", "How many years of experience does Pubali have?")
	require.NoError(t, err)
	assert.Contains(t, answer, "5 years")

	// the tool result carried the retrieved chunk back to the model
	require.Len(t, chat.requests, 2)
	second := chat.requests[1]
	toolMsg := second[len(second)-1]
	assert.Equal(t, "tool", toolMsg.Role)
	assert.Contains(t, toolMsg.Content, "5 years of Python experience")

	// completed turn persisted and archived
	turns := f.hist.turns["visitor-1"]
	require.Len(t, turns, 1)
	assert.Contains(t, turns[0].Answer, "5 years")
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "visitor-1", f.publisher.published[0].SessionID)
}

func TestAnswer_HistorySeedsPrompt(t *testing.T) {
	ctx := context.Background()
	chat := &scriptedChat{responses: []*ai.ChatMessage{
		{Role: "assistant", Content: "first answer"},
		{Role: "assistant", Content: "second answer"},
	}}
	f := newFixture(t, chat)

	_, err := f.service.Upload(ctx, "resume.txt", strings.NewReader("some resume content about experience"))
	require.NoError(t, err)

	_, err = f.service.Answer(ctx, "s1", "first question")
	require.NoError(t, err)
	_, err = f.service.Answer(ctx, "s1", "second question")
	require.NoError(t, err)

	require.Len(t, chat.requests, 2)
	prompt := chat.requests[1]
	// system + prior (q, a) + new question
	require.Len(t, prompt, 4)
	assert.Equal(t, "system", prompt[0].Role)
	assert.Equal(t, "first question", prompt[1].Content)
	assert.Equal(t, "first answer", prompt[2].Content)
	assert.Equal(t, "second question", prompt[3].Content)
}

func TestAnswer_HistoryOutageDegrades(t *testing.T) {
	ctx := context.Background()
	chat := &scriptedChat{responses: []*ai.ChatMessage{
		{Role: "assistant", Content: "answer without history"},
	}}
	f := newFixture(t, chat)
	f.hist.recentErr = assert.AnError

	_, err := f.service.Upload(ctx, "resume.txt", strings.NewReader("resume content"))
	require.NoError(t, err)

	answer, err := f.service.Answer(ctx, "s1", "question")
	require.NoError(t, err)
	assert.Equal(t, "answer without history", answer)
}

func TestAnswer_GenerationFailureReturnsSafeMessage(t *testing.T) {
	ctx := context.Background()
	chat := &scriptedChat{err: assert.AnError}
	f := newFixture(t, chat)

	_, err := f.service.Upload(ctx, "resume.txt", strings.NewReader("resume content"))
	require.NoError(t, err)

	answer, err := f.service.Answer(ctx, "s1", "question")
	require.NoError(t, err)
	assert.Equal(t, safeFailureMessage, answer)

	// no partial turn may be appended after a failed generation
	assert.Empty(t, f.hist.turns["s1"])
	assert.Empty(t, f.publisher.published)
}

func TestAnswer_ToolLoopIsBounded(t *testing.T) {
	ctx := context.Background()
	chat := &scriptedChat{responses: []*ai.ChatMessage{
		toolCallResponse("first"),
		toolCallResponse("second"),
		toolCallResponse("third"),
		toolCallResponse("fourth, never executed"),
		{Role: "assistant", Content: "forced final answer"},
	}}
	f := newFixture(t, chat)

	_, err := f.service.Upload(ctx, "resume.txt", strings.NewReader("resume content"))
	require.NoError(t, err)

	answer, err := f.service.Answer(ctx, "s1", "question")
	require.NoError(t, err)
	assert.Equal(t, "forced final answer", answer)

	// cap of 3 tool rounds plus one forced no-tool completion
	require.Len(t, chat.toolSets, 4)
	assert.NotEmpty(t, chat.toolSets[0])
	assert.NotEmpty(t, chat.toolSets[2])
	assert.Empty(t, chat.toolSets[3])
}

func TestAnswer_ReuploadInvalidatesOldIndex(t *testing.T) {
	ctx := context.Background()
	chat := &scriptedChat{responses: []*ai.ChatMessage{
		toolCallResponse("python"),
		{Role: "assistant", Content: "echo"},
	}}
	f := newFixture(t, chat)

	_, err := f.service.Upload(ctx, "resume.txt",
		strings.NewReader("Pubali has 5 years of Python experience."))
	require.NoError(t, err)
	_, err = f.service.Upload(ctx, "resume.txt",
		strings.NewReader("All recent work has been in Rust."))
	require.NoError(t, err)

	_, err = f.service.Answer(ctx, "s1", "python?")
	require.NoError(t, err)

	require.Len(t, chat.requests, 2)
	second := chat.requests[1]
	toolMsg := second[len(second)-1]
	assert.NotContains(t, toolMsg.Content, "Python experience")
	assert.Contains(t, toolMsg.Content, "Rust")
}

func TestUpload_RemovesSupersededIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &scriptedChat{})

	_, err := f.service.Upload(ctx, "resume.txt",
		strings.NewReader("Pubali has 5 years of Python experience."))
	require.NoError(t, err)
	// A different extension stores a different artifact, so the document
	// key changes and the old index slot must go away.
	_, err = f.service.Upload(ctx, "resume.md",
		strings.NewReader("All recent work has been in Rust."))
	require.NoError(t, err)

	entries, err := os.ReadDir(f.vectorDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAnswer_CorruptIndexIsRebuilt(t *testing.T) {
	ctx := context.Background()
	chat := &scriptedChat{responses: []*ai.ChatMessage{
		toolCallResponse("experience"),
		{Role: "assistant", Content: "rebuilt fine"},
	}}
	f := newFixture(t, chat)

	result, err := f.service.Upload(ctx, "resume.txt",
		strings.NewReader("Years of experience: five."))
	require.NoError(t, err)

	marker := filepath.Join(f.vectorDir, result.DocumentKey, "current")
	require.NoError(t, os.WriteFile(marker, []byte("gen-gone"), 0o644))

	answer, err := f.service.Answer(ctx, "s1", "how much experience?")
	require.NoError(t, err)
	assert.Equal(t, "rebuilt fine", answer)

	_, err = vectorstore.NewStore(f.vectorDir).Load(result.DocumentKey)
	assert.NoError(t, err)
}
