package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/topset/internal/autoreg"
	"github.com/claude/topset/internal/progress"
)

// --- Tool definitions ---

var toolListProgram = mcp.NewTool("list_program",
	mcp.WithDescription("List the training program: each day with its ordered exercises, ramp-up, top-set target and back-off prescription."),
)

var toolGetTopSetHistory = mcp.NewTool("get_top_set_history",
	mcp.WithDescription("Chronological primary top sets for one exercise across completed sessions. Each entry has weight, reps, RIR and estimated 1RM."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id from list_program (e.g. squat-d2)")),
	mcp.WithNumber("limit", mcp.Description("Return only the most recent N entries. Defaults to all.")),
)

var toolCheckRegression = mcp.NewTool("check_regression",
	mcp.WithDescription("Compare recent top sets for an exercise and suggest NONE, SUPPORT_REDUCTION or DELOAD."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id from list_program")),
)

var toolEstimateOneRepMax = mcp.NewTool("estimate_one_rep_max",
	mcp.WithDescription("Estimate a one-rep max with the Epley formula. Only defined for 1 to 12 reps."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Load lifted in kg")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions performed")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Latest vs previous top set with weight and e1RM deltas. Without exercise_id, lists every exercise that has history."),
	mcp.WithString("exercise_id", mcp.Description("Exercise id. Omit to list tracked exercises.")),
)

var toolGetCycleState = mcp.NewTool("get_cycle_state",
	mcp.WithDescription("Current periodization cycle: whether it is active, the week, the schedule and the active phase."),
)

var toolGetRecentSessions = mcp.NewTool("get_recent_sessions",
	mcp.WithDescription("Most recent completed sessions, newest first, with full set ledgers."),
	mcp.WithNumber("limit", mcp.Description("Number of sessions. Defaults to 5.")),
)

// --- Tool handlers ---

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listProgram(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := h.ds.ProgramDays(ctx)
	if err != nil {
		h.log.Error("mcp list_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(days)
}

func (h *handlers) getTopSetHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	hist, err := h.ds.TopSetHistory(ctx, UserIDFromContext(ctx), exerciseID)
	if err != nil {
		h.log.Error("mcp get_top_set_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if limit := req.GetInt("limit", 0); limit > 0 && len(hist) > limit {
		hist = hist[len(hist)-limit:]
	}
	if hist == nil {
		hist = []autoreg.Entry{}
	}
	return jsonResult(hist)
}

func (h *handlers) checkRegression(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	sug, err := h.ds.CheckRegression(ctx, UserIDFromContext(ctx), exerciseID)
	if err != nil {
		h.log.Error("mcp check_regression", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sug)
}

func (h *handlers) estimateOneRepMax(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	reps, err := req.RequireFloat("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	out := map[string]any{"weight": weight, "reps": int(reps), "available": false}
	if e1rm, ok := progress.EstimateOneRepMax(weight, int(reps)); ok {
		out["available"] = true
		out["e1rm"] = e1rm
	}
	return jsonResult(out)
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	exerciseID := req.GetString("exercise_id", "")
	if exerciseID == "" {
		tracked, err := h.ds.Tracked(ctx, uid)
		if err != nil {
			h.log.Error("mcp get_progress tracked", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		if tracked == nil {
			tracked = []autoreg.TrackedExercise{}
		}
		return jsonResult(tracked)
	}

	p, err := h.ds.Progress(ctx, uid, exerciseID)
	if errors.Is(err, autoreg.ErrNoHistory) {
		return mcp.NewToolResultError("no top-set history for " + exerciseID), nil
	}
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(p)
}

func (h *handlers) getCycleState(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.CycleState(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_cycle_state", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(st)
}

func (h *handlers) getRecentSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}
	sessions, err := h.ds.RecentSessions(ctx, UserIDFromContext(ctx), limit)
	if err != nil {
		h.log.Error("mcp get_recent_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sessions)
}
