package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

// Guidance shown to the model for common upstream failures.
const (
	GuidanceNotFound  = "Ressource nicht gefunden. Bitte ID/Name prüfen."
	GuidanceForbidden = "Zugriff verweigert."
	GuidanceRateLimit = "Zu viele Anfragen. Bitte warten."
	GuidanceTimeout   = "Zeitüberschreitung. Bitte erneut versuchen."
)

// describeError renders err as "Fehler bei <what>: <reason>".
func describeError(what string, err error) string {
	prefix := "Fehler: "
	if what != "" {
		prefix = fmt.Sprintf("Fehler bei %s: ", what)
	}

	if status := zurich.StatusCode(err); status != 0 {
		switch status {
		case http.StatusNotFound:
			return prefix + GuidanceNotFound
		case http.StatusForbidden:
			return prefix + GuidanceForbidden
		case http.StatusTooManyRequests:
			return prefix + GuidanceRateLimit
		default:
			return fmt.Sprintf("%sHTTP-Fehler %d", prefix, status)
		}
	}
	if zurich.IsTimeout(err) {
		return prefix + GuidanceTimeout
	}

	var apiErr *zurich.APIError
	if errors.As(err, &apiErr) {
		return prefix + apiErr.Error()
	}
	return prefix + err.Error()
}

type requestIDKey struct{}

// WithRequestID attaches the id of the current tool call to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id assigned to the current tool call, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// upstreamError logs err and converts it into a tool error result.
func upstreamError(ctx context.Context, logger *slog.Logger, what string, err error) *mcp.CallToolResult {
	logger.Warn("upstream call failed", "request_id", RequestID(ctx), "context", what, "error", err)
	return ErrorResponse(describeError(what, err))
}
