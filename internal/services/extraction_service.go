package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"parentpal_backend/internal/logger"
	"parentpal_backend/internal/metrics"
	"parentpal_backend/internal/services/dto"
	"parentpal_backend/pkg/apperrors"
)

const extractionSystemPrompt = `You are a helpful assistant that extracts structured event data from school emails. Always respond with a valid JSON array.`

const extractionPromptTemplate = `You are an expert at extracting school event information from emails.
Analyze this school email and extract any events, activities, or important dates mentioned.

Email Subject: %s
Email Body: %s

Extract all events and return them as a JSON array. For each event, include:
- title: Brief descriptive name of the event
- description: More detailed description if available
- eventDate: Date in ISO format (YYYY-MM-DD)
- childName: Name of the child if specifically mentioned
- location: Where the event takes place
- preparation: Any required preparation (costumes, money, forms, items to bring)
- requiresAction: true if the parent must do something
- actionDeadline: Deadline for the required action (YYYY-MM-DD)
- isCanceled: true if the event is canceled or postponed

Important notes:
- Only extract actual events/activities, not just informational content
- If an event is canceled or changed, mark isCanceled as true
- Return an empty array if no events are found
- Be conservative - only extract clear, actionable events

Respond with the JSON array only.`

// ExtractionService turns raw email text into structured event candidates.
// Extract never fails from the caller's point of view: any unrecoverable
// problem degrades to the heuristic fallback parser.
type ExtractionService interface {
	Extract(ctx context.Context, subject, body string) []dto.EventCandidate
}

type extractionService struct {
	client   *CompletionClient
	fallback *FallbackParser
	now      func() time.Time
}

func NewExtractionService(client *CompletionClient, fallback *FallbackParser) ExtractionService {
	return &extractionService{
		client:   client,
		fallback: fallback,
		now:      time.Now,
	}
}

func (s *extractionService) Extract(ctx context.Context, subject, body string) []dto.EventCandidate {
	prompt := fmt.Sprintf(extractionPromptTemplate, subject, body)

	content, err := s.client.Complete(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		reason := "request_failed"
		if apperrors.IsRateLimited(err) {
			reason = "rate_limited"
		}
		metrics.ExtractorFallbacks.WithLabelValues(reason).Inc()
		logger.CtxWithError(ctx, "completion request failed, using fallback parser", err, "subject", subject)
		return s.fallback.Parse(subject, body, s.now())
	}

	candidates, err := parseCandidates(content)
	if err != nil {
		metrics.ExtractorFallbacks.WithLabelValues("parse_failed").Inc()
		logger.CtxWithError(ctx, "unparseable completion output, using fallback parser", err, "subject", subject)
		return s.fallback.Parse(subject, body, s.now())
	}

	return candidates
}

// parseCandidates is the strict second stage: it either yields a fully valid
// candidate list or fails, triggering the fallback. No partial parses.
func parseCandidates(content string) ([]dto.EventCandidate, error) {
	sanitized, err := sanitizeJSONArray(content)
	if err != nil {
		return nil, err
	}

	var candidates []dto.EventCandidate
	if err := json.Unmarshal([]byte(sanitized), &candidates); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	for i := range candidates {
		candidates[i].Title = strings.TrimSpace(candidates[i].Title)
		if candidates[i].Title == "" {
			return nil, fmt.Errorf("candidate %d has no usable title", i)
		}
		raw, _ := json.Marshal(candidates[i])
		candidates[i].Raw = raw
	}

	return candidates, nil
}

// sanitizeJSONArray extracts the JSON array substring from completion output.
// The service may wrap the array in code fences or surround it with
// explanatory prose; only the first '[' through the last ']' is parsed.
func sanitizeJSONArray(content string) (string, error) {
	content = strings.TrimSpace(content)
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON array found in completion output")
	}

	return content[start : end+1], nil
}
