package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codewell/rre/engine"
)

// parseToolArguments validates and extracts the arguments map from an
// MCP tool request, same shape the teacher's internal/mcp/helpers.go
// uses for every tool.
func parseToolArguments(request mcp.CallToolRequest) (map[string]interface{}, *mcp.CallToolResult) {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("invalid arguments format")
	}
	return argsMap, nil
}

func marshalToolResponse(response interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// queryResponse is the rre_query tool's JSON response schema.
type queryResponse struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
	Metrics struct {
		RetrievalLatencyMs float64 `json:"retrieval_latency_ms"`
		EmbeddingLatencyMs float64 `json:"embedding_latency_ms"`
		ResultsCount       int     `json:"results_count"`
		TopScore           float64 `json:"top_score"`
		HybridSearchUsed   bool    `json:"hybrid_search_used"`
	} `json:"metrics"`
}

// handleQuery implements the rre_query tool (§6's query_with_metrics),
// split out from AddQueryTool so it can be exercised directly in tests
// without standing up a full MCP server.
func handleQuery(eng *engine.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}

		queryText, ok := argsMap["query"].(string)
		if !ok || queryText == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		limit := 5
		if l, ok := argsMap["limit"].(float64); ok && l > 0 {
			limit = int(l)
		}

		resp := eng.QueryWithMetrics(ctx, queryText, limit)

		out := queryResponse{Query: queryText, Results: resp.Results}
		out.Metrics.RetrievalLatencyMs = resp.Metrics.RetrievalLatencyMs
		out.Metrics.EmbeddingLatencyMs = resp.Metrics.EmbeddingLatencyMs
		out.Metrics.ResultsCount = resp.Metrics.ResultsCount
		out.Metrics.TopScore = resp.Metrics.TopScore
		out.Metrics.HybridSearchUsed = resp.Metrics.HybridSearchUsed

		return marshalToolResponse(out)
	}
}

// handleWarmIndex implements the rre_warm_index tool (§6's warm_index).
func handleWarmIndex(eng *engine.Engine, root string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := eng.WarmIndex(ctx, root); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("warm_index failed: %v", err)), nil
		}
		return mcp.NewToolResultText(`{"status":"ready"}`), nil
	}
}

// handleRebuildIndex implements the rre_rebuild_index tool (§6's
// rebuild_index).
func handleRebuildIndex(eng *engine.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := eng.RebuildIndex(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("rebuild_index failed: %v", err)), nil
		}
		return mcp.NewToolResultText(`{"status":"rebuilt"}`), nil
	}
}

// AddQueryTool registers rre_query, the canonical retrieval call
// (§6's query_with_metrics).
func AddQueryTool(s *server.MCPServer, eng *engine.Engine) {
	tool := mcp.NewTool(
		"rre_query",
		mcp.WithDescription("Hybrid lexical+semantic search over the indexed repository. Returns the top matching code/doc snippets for a natural-language or identifier query."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text: a question, identifier, or phrase to find matching code/docs for")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 5)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, handleQuery(eng))
}

// AddWarmIndexTool registers rre_warm_index (§6's warm_index): lazy,
// idempotent — a no-op if the repository is already warmed.
func AddWarmIndexTool(s *server.MCPServer, eng *engine.Engine, root string) {
	tool := mcp.NewTool(
		"rre_warm_index",
		mcp.WithDescription("Ensure the repository index is loaded, restoring from an on-disk or branch snapshot when possible and falling back to a full index otherwise. Safe to call repeatedly; a no-op once warmed."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, handleWarmIndex(eng, root))
}

// AddRebuildIndexTool registers rre_rebuild_index (§6's rebuild_index):
// an explicit from-scratch reindex.
func AddRebuildIndexTool(s *server.MCPServer, eng *engine.Engine) {
	tool := mcp.NewTool(
		"rre_rebuild_index",
		mcp.WithDescription("Force a from-scratch rebuild of the repository index, discarding any existing index state."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
	)

	s.AddTool(tool, handleRebuildIndex(eng))
}
