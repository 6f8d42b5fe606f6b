package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/schulamt-zurich/zurichmcp/pkg/tools"
)

// requestLogging assigns every tool call a request id and logs its outcome.
func requestLogging(logger *slog.Logger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id := uuid.NewString()
			log := logger.With("request_id", id, "tool", req.Params.Name)
			ctx = tools.WithRequestID(ctx, id)

			start := time.Now()
			log.Debug("tool call started")
			res, err := next(ctx, req)
			elapsed := time.Since(start)

			switch {
			case err != nil:
				log.Error("tool call failed", "duration", elapsed, "error", err)
			case res != nil && res.IsError:
				log.Warn("tool call returned error result", "duration", elapsed)
			default:
				log.Info("tool call completed", "duration", elapsed)
			}
			return res, err
		}
	}
}
