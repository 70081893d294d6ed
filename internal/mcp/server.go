// Package mcp exposes training history to MCP clients.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// DefaultUserID is used when the transport did not attach a user.
const DefaultUserID = "local"

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return DefaultUserID
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("topset", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("topset strength training server. Query the program, top-set history, regression checks, progress and the periodization cycle. All data is scoped to the configured user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListProgram, Handler: h.listProgram},
		server.ServerTool{Tool: toolGetTopSetHistory, Handler: h.getTopSetHistory},
		server.ServerTool{Tool: toolCheckRegression, Handler: h.checkRegression},
		server.ServerTool{Tool: toolEstimateOneRepMax, Handler: h.estimateOneRepMax},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetCycleState, Handler: h.getCycleState},
		server.ServerTool{Tool: toolGetRecentSessions, Handler: h.getRecentSessions},
	)

	s.AddResources(
		server.ServerResource{Resource: resProgram, Handler: h.program},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resProgram = mcp.NewResource(
	"topset://program",
	"Training Program",
	mcp.WithResourceDescription("Program days with their ordered exercise templates and set prescriptions"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"topset://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("The ten most recent completed sessions, newest first"),
	mcp.WithMIMEType("application/json"),
)
