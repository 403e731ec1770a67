package collab

import "context"

// NopSecretDetector is the default SecretDetectionService: detection
// disabled, every text passed through unchanged.
type NopSecretDetector struct{}

func (NopSecretDetector) GetConfig() SecretConfig { return SecretConfig{Enabled: false} }

func (NopSecretDetector) DetectSecrets(text string) SecretScanResult {
	return SecretScanResult{HasSecrets: false, RedactedText: text}
}

// AlwaysOnlinePrivacyGate is the default PrivacyGate: never blocks
// embedding.
type AlwaysOnlinePrivacyGate struct{}

func (AlwaysOnlinePrivacyGate) IsOfflineOrPrivacyMode() bool { return false }

// NopEmbeddingService is the default EmbeddingService when no host
// embedding provider is wired: disabled, so callers skip straight to
// the BM25-only path (§4.5, §7).
type NopEmbeddingService struct{}

func (NopEmbeddingService) IsEnabled() bool { return false }

func (NopEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

// NopVectorStore is the default VectorStore: disabled, so the ranker
// never attempts the external-vector-store variant (§4.5).
type NopVectorStore struct{}

func (NopVectorStore) IsEnabled() bool { return false }

func (NopVectorStore) Query(ctx context.Context, vec []float32, k int) ([]VectorMatch, error) {
	return nil, nil
}

// NopNotificationService discards every notification; used when the
// host has no UI surface to report progress to.
type NopNotificationService struct{}

func (NopNotificationService) Info(string) {}
func (NopNotificationService) Warn(string) {}
