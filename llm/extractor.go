package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/camden-git/loreboardbackend/models"
)

// Extractor turns prose into attribute values with a chat model.
type Extractor struct {
	client Client
}

// NewExtractor wraps a provider client.
func NewExtractor(client Client) *Extractor {
	return &Extractor{client: client}
}

// ExtractAttributes fills every category of a new entity from context.
func (e *Extractor) ExtractAttributes(ctx context.Context, t models.EntityType, name, passage string) (models.Attributes, error) {
	raw, err := e.client.Complete(ctx, CompletionRequest{
		System: ExtractionPrompt(t, name),
		User:   contextMessage(passage),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s attributes: %w", t, err)
	}
	attrs, err := ParseAttributes(raw, t, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return attrs, nil
}

// UpdateAttributes returns new information about an existing entity. With a
// category the answer is free text for that category only; otherwise it is
// a JSON object and missing categories come back as "".
func (e *Extractor) UpdateAttributes(ctx context.Context, t models.EntityType, name string, existing models.Attributes, passage, category string) (models.Attributes, error) {
	if category != "" {
		raw, err := e.client.Complete(ctx, CompletionRequest{
			System: CategoryUpdatePrompt(t, name, existing, category),
			User:   newContextMessage(passage),
		})
		if err != nil {
			return nil, fmt.Errorf("update %s %s: %w", t, category, err)
		}
		return models.Attributes{category: strings.TrimSpace(raw)}, nil
	}

	raw, err := e.client.Complete(ctx, CompletionRequest{
		System: GeneralUpdatePrompt(t, name, existing),
		User:   newContextMessage(passage),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("update %s attributes: %w", t, err)
	}
	attrs, err := ParseAttributes(raw, t, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return attrs, nil
}

// ExtractUpdates asks for new information about one of several entities
// mentioned in text. Only categories the model returned are present.
func (e *Extractor) ExtractUpdates(ctx context.Context, t models.EntityType, name, text string) (models.Attributes, error) {
	raw, err := e.client.Complete(ctx, CompletionRequest{
		System: BulkUpdatePrompt(t, name),
		User:   contextMessage(text),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("bulk update %s %s: %w", t, name, err)
	}
	return ParseAttributes(raw, t, false)
}
