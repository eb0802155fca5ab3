package translate

import (
	"context"

	"go.uber.org/zap"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/pkg/logger"
	"nammaraitha-backend/pkg/metrics"
)

// Provider is one translation backend. Implementations return the
// translated text or an error; the service handles fallback.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Service walks an ordered provider chain, first success wins.
// Total failure is not an error: callers always get usable text back.
type Service struct {
	providers []Provider
}

// NewService creates a translation service over the given chain.
// Order matters; providers are tried front to back.
func NewService(providers ...Provider) *Service {
	return &Service{providers: providers}
}

// Translate runs the provider chain and returns text rendered in
// targetLang. When every provider fails the original text comes back
// unchanged with a warning logged. Failed translation never blocks
// message delivery or rendering.
func (s *Service) Translate(ctx context.Context, text, targetLang string) string {
	if text == "" {
		return text
	}

	for _, provider := range s.providers {
		translated, err := provider.Translate(ctx, text, targetLang)
		if err != nil {
			logger.Debug("Translation provider failed, trying next",
				zap.String("provider", provider.Name()),
				zap.String("target_lang", targetLang),
				zap.Error(err))
			continue
		}
		if translated != "" {
			return translated
		}
	}

	metrics.ChatTranslationFallbackTotal.WithLabelValues(targetLang).Inc()
	logger.Warn("All translation providers failed, returning original text",
		zap.String("target_lang", targetLang),
		zap.Int("providers", len(s.providers)))

	return text
}

// ToDisplay renders stored canonical text in the viewer's display
// language. The canonical display language is a short-circuit: the
// text is already in it, so no network call is made.
func (s *Service) ToDisplay(ctx context.Context, text, displayLang string) string {
	if displayLang == domain.CanonicalLanguage {
		return text
	}
	return s.Translate(ctx, text, displayLang)
}

// ToCanonical renders authored text in the canonical storage
// language. Text authored in the canonical language passes through
// untouched.
func (s *Service) ToCanonical(ctx context.Context, text, authoredLang string) string {
	if authoredLang == domain.CanonicalLanguage {
		return text
	}
	return s.Translate(ctx, text, domain.CanonicalLanguage)
}
