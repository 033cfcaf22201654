package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/itsmkit/helpdesk-service/internal/config"
	apperrors "github.com/itsmkit/helpdesk-service/pkg/util/errorutil"
)

// RagService is a thin proxy in front of the external RAG
// question-answering service. No retries, no circuit breaking; errors
// are translated into the service's error taxonomy. Answers are cached
// in Redis for a short TTL keyed by the question.
type RagService struct {
	cfg    config.RagConfig
	client *http.Client
	cache  *redis.Client
	logger *zap.Logger
}

type ragRequest struct {
	Question string `json:"question"`
}

type ragResponse struct {
	Answer string `json:"answer"`
}

// NewRagService constructs the proxy.
func NewRagService(cfg config.RagConfig, cache *redis.Client, logger *zap.Logger) *RagService {
	return &RagService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
		cache:  cache,
		logger: logger,
	}
}

// Ask forwards a question to the RAG service and returns its answer.
func (s *RagService) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperrors.NewValidationError("question is required", nil)
	}

	if answer, ok := s.cachedAnswer(ctx, question); ok {
		return answer, nil
	}

	body, err := json.Marshal(ragRequest{Question: question})
	if err != nil {
		return "", apperrors.MapError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/rag/ask", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.MapError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return "", apperrors.NewUnavailable("RAG service unavailable", map[string]any{"url": s.cfg.BaseURL})
		}
		return "", apperrors.MapError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.MapError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewUpstreamError(
			fmt.Sprintf("RAG service returned status %d", resp.StatusCode),
			resp.StatusCode, nil)
	}

	var parsed ragResponse
	if err := json.Unmarshal(payload, &parsed); err != nil || parsed.Answer == "" {
		return "", apperrors.NewUpstreamError("invalid response from RAG service: missing answer", resp.StatusCode, nil)
	}

	s.storeAnswer(ctx, question, parsed.Answer)
	return parsed.Answer, nil
}

func (s *RagService) cachedAnswer(ctx context.Context, question string) (string, bool) {
	if s.cache == nil || s.cfg.AnswerCacheTTL() <= 0 {
		return "", false
	}
	answer, err := s.cache.Get(ctx, ragCacheKey(question)).Result()
	if err != nil {
		return "", false
	}
	return answer, true
}

func (s *RagService) storeAnswer(ctx context.Context, question, answer string) {
	if s.cache == nil || s.cfg.AnswerCacheTTL() <= 0 {
		return
	}
	if err := s.cache.Set(ctx, ragCacheKey(question), answer, s.cfg.AnswerCacheTTL()).Err(); err != nil {
		s.logger.Debug("rag answer cache write failed", zap.Error(err))
	}
}

func ragCacheKey(question string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(question)))
	return "rag:answer:" + hex.EncodeToString(sum[:])
}

func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
