package enrichment

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"

	"github.com/stevendeporre123/quest-app/internal/services"
)

// classify tags a provider error with the marker the dispatcher retries on.
func classify(ctx context.Context, provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || (ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return services.Wrap(services.ErrTimeout, stage, provider, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrTransient, stage, provider, "request canceled", err)
	}

	if status, ok := statusCode(err); ok {
		switch {
		case status == http.StatusTooManyRequests:
			return services.Wrap(services.ErrRateLimited, stage, provider, "rate limited", err)
		case status == http.StatusRequestTimeout:
			return services.Wrap(services.ErrTimeout, stage, provider, "provider timeout", err)
		case status == http.StatusConflict, status >= http.StatusInternalServerError:
			return services.Wrap(services.ErrTransient, stage, provider, "provider unavailable", err)
		case status == http.StatusUnauthorized, status == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, stage, provider, "credentials rejected", err)
		case status >= http.StatusBadRequest:
			return services.Wrap(services.ErrPermanent, stage, provider, "request rejected", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return services.Wrap(services.ErrTransient, stage, provider, "network error", err)
	}
	return services.Wrap(services.ErrTransient, stage, provider, "request failed", err)
}

func statusCode(err error) (int, bool) {
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode, true
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}
	return 0, false
}
