// Package embedding implements the embedding pipeline (§4.3 step 5):
// the default EmbeddingService collaborator, and a Pipeline that
// applies secret redaction and the privacy gate before ever calling
// it, matching §6's "applied to every text before embedding" rule.
package embedding

import (
	"context"
	"fmt"

	"github.com/codewell/rre/internal/collab"
)

// Pipeline gates embedding calls behind a PrivacyGate and a
// SecretDetectionService, so callers never need to sequence those
// checks themselves.
type Pipeline struct {
	service collab.EmbeddingService
	privacy collab.PrivacyGate
	secrets collab.SecretDetectionService
}

// NewPipeline wires a Pipeline from its three collaborators. Any of
// them may be nil, in which case default collaborators are assumed to
// have already been substituted by the caller (engine construction).
func NewPipeline(service collab.EmbeddingService, privacy collab.PrivacyGate, secrets collab.SecretDetectionService) *Pipeline {
	return &Pipeline{service: service, privacy: privacy, secrets: secrets}
}

// Usable reports whether an embedding call is worth attempting at
// all: the service must be enabled and the privacy gate must not be
// blocking it (§6).
func (p *Pipeline) Usable() bool {
	if p.service == nil || !p.service.IsEnabled() {
		return false
	}
	if p.privacy != nil && p.privacy.IsOfflineOrPrivacyMode() {
		return false
	}
	return true
}

// Embed redacts secrets out of every text, then embeds the redacted
// batch in one call (§4.3 step 5: "compute snippet and chunk
// embeddings in one batched call"). Returns (nil, nil) rather than an
// error when embedding isn't usable, so callers can treat it as "no
// embeddings available" without special-casing every call site.
func (p *Pipeline) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !p.Usable() {
		return nil, nil
	}

	redacted := make([]string, len(texts))
	for i, t := range texts {
		redacted[i] = p.redact(t)
	}

	vectors, err := p.service.Embed(ctx, redacted)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	return vectors, nil
}

func (p *Pipeline) redact(text string) string {
	if p.secrets == nil {
		return text
	}
	cfg := p.secrets.GetConfig()
	if !cfg.Enabled {
		return text
	}
	result := p.secrets.DetectSecrets(text)
	return result.RedactedText
}
