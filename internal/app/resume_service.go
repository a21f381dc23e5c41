package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio-backend/internal/ai"
	"portfolio-backend/internal/chunk"
	"portfolio-backend/internal/history"
	"portfolio-backend/internal/ingest"
	"portfolio-backend/internal/model"
	"portfolio-backend/internal/vectorstore"
)

var (
	ErrNoResumeLoaded = errors.New("no resume has been uploaded yet")
	ErrSessionMissing = errors.New("session identifier is missing")
	ErrGeneration     = errors.New("answer generation failed")
)

const (
	searchToolName = "search_resume"

	systemPrompt = "You are a helpful assistant that answers questions about the site owner's resume. " +
		"Use the search_resume tool to look up relevant information before answering. " +
		"Always be professional and answer based on the actual resume content. " +
		"If information is not found in the resume, be honest about it and do not make up facts."

	safeFailureMessage = "Sorry, I couldn't generate a response right now. Please try again in a moment."
)

// ChatClient is the slice of the LLM client the answer generator needs.
type ChatClient interface {
	CompleteWithTools(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, tools []ai.Tool) (*ai.ChatMessage, error)
}

// HistoryStore keeps per-session conversation turns.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, turn history.Turn) error
	Recent(ctx context.Context, sessionID string, limit int) ([]history.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

// TurnPublisher enqueues completed turns for async archival.
type TurnPublisher interface {
	Publish(ctx context.Context, turn model.Turn) error
}

// ResumeOptions tunes the ingestion and answer pipeline.
type ResumeOptions struct {
	ChunkSize     int
	ChunkOverlap  int
	TopK          int
	HistoryTurns  int
	ToolCallLimit int
}

func (o *ResumeOptions) applyDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = chunk.DefaultSize
	}
	if o.ChunkOverlap < 0 {
		o.ChunkOverlap = chunk.DefaultOverlap
	}
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.HistoryTurns <= 0 {
		o.HistoryTurns = 5
	}
	if o.ToolCallLimit <= 0 {
		o.ToolCallLimit = 3
	}
}

type ResumeService struct {
	ingestor     *ingest.Ingestor
	indexStore   *vectorstore.Store
	embedder     vectorstore.Embedder
	chatClient   ChatClient
	chatCfg      ai.ChatConfig
	historyStore HistoryStore
	publisher    TurnPublisher
	logger       *zap.Logger
	opts         ResumeOptions
}

func NewResumeService(
	ingestor *ingest.Ingestor,
	indexStore *vectorstore.Store,
	embedder vectorstore.Embedder,
	chatClient ChatClient,
	chatCfg ai.ChatConfig,
	historyStore HistoryStore,
	publisher TurnPublisher,
	logger *zap.Logger,
	opts ResumeOptions,
) *ResumeService {
	opts.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumeService{
		ingestor:     ingestor,
		indexStore:   indexStore,
		embedder:     embedder,
		chatClient:   chatClient,
		chatCfg:      chatCfg,
		historyStore: historyStore,
		publisher:    publisher,
		logger:       logger,
		opts:         opts,
	}
}

// UploadResult reports what the index rebuild produced.
type UploadResult struct {
	DocumentKey string `json:"document_key"`
	ChunkCount  int    `json:"chunk_count"`
}

// Upload ingests the resume, rebuilds its vector index and swaps it into
// place. A re-upload overwrites both the artifact and the index slot, so
// answers never come from stale content.
func (s *ResumeService) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	previous, err := s.ingestor.Current()
	if err != nil && !errors.Is(err, ingest.ErrNoDocument) {
		return nil, err
	}

	doc, text, err := s.ingestor.Store(filename, r)
	if err != nil {
		return nil, err
	}

	chunks := chunk.Split(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	idx, err := vectorstore.Build(ctx, s.embedder, chunks)
	if err != nil {
		return nil, err
	}
	if err := s.indexStore.Save(idx, doc.Key); err != nil {
		return nil, err
	}
	// A different file extension yields a different artifact path and key;
	// drop the superseded index so it cannot serve stale content.
	if previous != nil && previous.Key != doc.Key {
		if err := s.indexStore.Delete(previous.Key); err != nil {
			s.logger.Warn("remove superseded index failed",
				zap.String("document_key", previous.Key),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("resume indexed",
		zap.String("document_key", doc.Key),
		zap.Int("chunks", len(chunks)),
	)
	return &UploadResult{DocumentKey: doc.Key, ChunkCount: len(chunks)}, nil
}

// Download returns the stored raw resume.
func (s *ResumeService) Download() (*ingest.Document, []byte, error) {
	doc, err := s.ingestor.Current()
	if err != nil {
		if errors.Is(err, ingest.ErrNoDocument) {
			return nil, nil, ErrNoResumeLoaded
		}
		return nil, nil, err
	}
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("read resume artifact failed: %w", err)
	}
	return doc, data, nil
}

// ClearHistory drops the session's conversation log.
func (s *ResumeService) ClearHistory(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionMissing
	}
	return s.historyStore.Clear(ctx, sessionID)
}

// Answer runs one chat turn: load (or rebuild) the index for the current
// resume, seed the prompt with recent history, let the model call the
// retrieval tool a bounded number of times, persist the completed turn and
// return the answer. Model failures come back as a user-safe message; the
// detail is logged and never leaks to the caller.
func (s *ResumeService) Answer(ctx context.Context, sessionID, question string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrSessionMissing
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrInvalidInput
	}

	idx, err := s.loadOrRebuildIndex(ctx)
	if err != nil {
		return "", err
	}

	turns, err := s.historyStore.Recent(ctx, sessionID, s.opts.HistoryTurns)
	if err != nil {
		// History outage degrades to an empty context instead of failing the turn.
		s.logger.Warn("history store unavailable, answering without history",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		turns = nil
	}

	answer, err := s.generate(ctx, idx, turns, question)
	if err != nil {
		s.logger.Error("answer generation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return safeFailureMessage, nil
	}

	turn := history.Turn{Question: question, Answer: answer, AskedAt: time.Now()}
	if err := s.historyStore.Append(ctx, sessionID, turn); err != nil {
		s.logger.Warn("append turn failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	if s.publisher != nil {
		archived := model.Turn{
			SessionID: sessionID,
			Question:  question,
			Answer:    answer,
			CreatedAt: turn.AskedAt,
		}
		if err := s.publisher.Publish(ctx, archived); err != nil {
			s.logger.Warn("publish turn for archival failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	return answer, nil
}

// loadOrRebuildIndex resolves the current document and loads its index. A
// missing or corrupt index is rebuilt from the stored artifact; only the
// absence of any uploaded resume is fatal.
func (s *ResumeService) loadOrRebuildIndex(ctx context.Context) (*vectorstore.Index, error) {
	doc, err := s.ingestor.Current()
	if err != nil {
		if errors.Is(err, ingest.ErrNoDocument) {
			return nil, ErrNoResumeLoaded
		}
		return nil, err
	}

	idx, err := s.indexStore.Load(doc.Key)
	if err == nil {
		return idx, nil
	}
	if !errors.Is(err, vectorstore.ErrIndexNotFound) && !errors.Is(err, vectorstore.ErrIndexCorrupt) {
		return nil, err
	}
	if errors.Is(err, vectorstore.ErrIndexCorrupt) {
		s.logger.Warn("vector index corrupt, rebuilding from artifact",
			zap.String("document_key", doc.Key),
			zap.Error(err),
		)
	}

	text, err := s.ingestor.Text(doc)
	if err != nil {
		if errors.Is(err, ingest.ErrNoDocument) {
			return nil, ErrNoResumeLoaded
		}
		return nil, err
	}
	chunks := chunk.Split(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	idx, err = vectorstore.Build(ctx, s.embedder, chunks)
	if err != nil {
		return nil, err
	}
	if err := s.indexStore.Save(idx, doc.Key); err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *ResumeService) generate(ctx context.Context, idx *vectorstore.Index, turns []history.Turn, question string) (string, error) {
	messages := make([]ai.ChatMessage, 0, len(turns)*2+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: systemPrompt})
	for _, turn := range turns {
		messages = append(messages,
			ai.ChatMessage{Role: "user", Content: turn.Question},
			ai.ChatMessage{Role: "assistant", Content: turn.Answer},
		)
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: question})

	tools := []ai.Tool{searchResumeTool()}
	for i := 0; i < s.opts.ToolCallLimit; i++ {
		msg, err := s.chatClient.CompleteWithTools(ctx, s.chatCfg, messages, tools)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		if len(msg.ToolCalls) == 0 {
			return s.finalize(msg.Content)
		}

		messages = append(messages, *msg)
		for _, call := range msg.ToolCalls {
			messages = append(messages, ai.ChatMessage{
				Role:       "tool",
				Content:    s.executeToolCall(ctx, idx, call),
				ToolCallID: call.ID,
			})
		}
	}

	// Iteration cap reached; ask for a final answer without tools.
	msg, err := s.chatClient.CompleteWithTools(ctx, s.chatCfg, messages, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return s.finalize(msg.Content)
}

func (s *ResumeService) finalize(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: model returned empty content", ErrGeneration)
	}
	return content, nil
}

func (s *ResumeService) executeToolCall(ctx context.Context, idx *vectorstore.Index, call ai.ToolCall) string {
	if call.Function.Name != searchToolName {
		return fmt.Sprintf("Unknown tool %q.", call.Function.Name)
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || strings.TrimSpace(args.Query) == "" {
		return "The search_resume tool requires a non-empty \"query\" string argument."
	}

	results, err := idx.Search(ctx, s.embedder, args.Query, s.opts.TopK)
	if err != nil {
		s.logger.Warn("resume search failed", zap.String("query", args.Query), zap.Error(err))
		return "Resume search is temporarily unavailable."
	}
	if len(results) == 0 {
		return "No relevant information found in the resume for this query."
	}
	return "Relevant information from the resume:\n" + strings.Join(results, "\n\n")
}

func searchResumeTool() ai.Tool {
	return ai.Tool{
		Type: "function",
		Function: ai.FunctionSchema{
			Name:        searchToolName,
			Description: "Searches the resume for information relevant to the query.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "What to look up in the resume.",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}
