package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/imspharma/pharma-backend/internal/query"
	"github.com/imspharma/pharma-backend/internal/schema"
)

// ToolExecuteQuery is the single tool this server exposes.
const ToolExecuteQuery = "execute_mongodb_query"

const serverInstructions = "Agent that can query a MongoDB database of IMS pharmaceutical market data. " +
	"Focus on the most relevant fields: Dosage Form, NDC-TRIM, Corporation, Manufacturer, Brand/Generic, " +
	"Rx Status, Strength, Pack Size, Pack Quantity, Combined Molecule, and March 2025 sales/units data."

// HandleMCP handles MCP (JSON-RPC 2.0) requests on the streamable HTTP
// transport.
func (h *Handler) HandleMCP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Parse JSON-RPC request
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendJSONRPCError(w, r, nil, JSONRPCParseError, "Parse error", err.Error())
		return
	}

	// Validate JSON-RPC version
	if req.JSONRPC != "2.0" {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidRequest, "Invalid Request", "jsonrpc must be '2.0'")
		return
	}

	// Notifications carry no id and expect no response body
	if strings.HasPrefix(req.Method, "notifications/") {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	// Handle method
	switch req.Method {
	case "initialize":
		h.handleInitialize(w, r, &req)
	case "ping":
		h.sendJSONRPCResult(w, r, req.ID, struct{}{})
	case "tools/list":
		h.handleListTools(w, r, &req)
	case "tools/call":
		h.handleCallTool(w, r, &req)
	case "resources/list":
		h.handleListResources(w, r, &req)
	case "resources/read":
		h.handleReadResource(w, r, &req)
	default:
		h.sendJSONRPCError(w, r, req.ID, JSONRPCMethodNotFound, "Method not found", fmt.Sprintf("Method '%s' not found", req.Method))
	}
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request, req *JSONRPCRequest) {
	result := InitializeResult{
		ProtocolVersion: MCPProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     &ToolsCapability{},
			Resources: &ResourcesCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: Version,
		},
		Instructions: serverInstructions,
	}

	h.sendJSONRPCResult(w, r, req.ID, result)
}

func (h *Handler) handleListTools(w http.ResponseWriter, r *http.Request, req *JSONRPCRequest) {
	result := ListToolsResult{
		Tools: []Tool{
			{
				Name: ToolExecuteQuery,
				Description: "Execute a MongoDB query on IMS pharmaceutical data and return the results " +
					"as a JSON array of documents.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "object",
							"description": "MongoDB filter document. An empty object matches every record.",
						},
						"collection_name": map[string]any{
							"type":        "string",
							"description": "Collection to query.",
							"default":     h.config.Mongo.Collection,
						},
						"database_name": map[string]any{
							"type":        "string",
							"description": "Database holding the collection.",
							"default":     h.config.Mongo.Database,
						},
						"projection": map[string]any{
							"type":        "object",
							"description": "Fields to include/exclude in the results.",
						},
						"limit": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"description": "Maximum number of results. 0 means no limit.",
						},
						"sort": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "array"},
							"description": "List of [field, direction] pairs; direction is 1 (ascending) or -1 (descending).",
						},
					},
					"required": []string{"query"},
				},
			},
		},
	}

	h.sendJSONRPCResult(w, r, req.ID, result)
}

func (h *Handler) handleCallTool(w http.ResponseWriter, r *http.Request, req *JSONRPCRequest) {
	// Parse parameters
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidParams, "Invalid params", "Failed to parse parameters")
		return
	}

	var params CallToolParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidParams, "Invalid params", err.Error())
		return
	}

	if params.Name != ToolExecuteQuery {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidParams, "Unknown tool", fmt.Sprintf("Tool '%s' not found", params.Name))
		return
	}

	var args ExecuteQueryArguments
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidParams, "Invalid arguments", err.Error())
			return
		}
	}

	if args.Query == nil {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidParams, "Invalid arguments", "query is required (use {} to match everything)")
		return
	}

	if args.Limit < 0 {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidParams, "Invalid arguments", "limit must be non-negative")
		return
	}

	sort, err := parseSort(args.Sort)
	if err != nil {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidParams, "Invalid arguments", err.Error())
		return
	}

	results, err := h.executor.Execute(r.Context(), query.Request{
		Filter:     args.Query,
		Database:   args.DatabaseName,
		Collection: args.CollectionName,
		Projection: args.Projection,
		Limit:      args.Limit,
		Sort:       sort,
	})
	if err != nil {
		// Tool execution failures are tool results, not protocol errors:
		// the caller gets the classified message and can adjust the query.
		h.logger.Errorw("Query execution failed", "error", err, "kind", query.KindOf(err))
		h.sendJSONRPCResult(w, r, req.ID, CallToolResult{
			Content: []ContentBlock{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
		return
	}

	payload, err := json.Marshal(results)
	if err != nil {
		h.logger.Errorw("Failed to serialize query results", "error", err)
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInternalError, "Internal error", "Failed to serialize results")
		return
	}

	h.sendJSONRPCResult(w, r, req.ID, CallToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(payload)}},
	})
}

func (h *Handler) handleListResources(w http.ResponseWriter, r *http.Request, req *JSONRPCRequest) {
	result := ListResourcesResult{
		Resources: []Resource{
			{
				URI:         schema.ResourceURI,
				Name:        "IMS pharmaceutical data schema",
				Description: "The schema of the most relevant fields in the IMS pharmaceutical data collection.",
				MimeType:    "application/json",
			},
		},
	}

	h.sendJSONRPCResult(w, r, req.ID, result)
}

func (h *Handler) handleReadResource(w http.ResponseWriter, r *http.Request, req *JSONRPCRequest) {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidParams, "Invalid params", "Failed to parse parameters")
		return
	}

	var params ReadResourceParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInvalidParams, "Invalid params", err.Error())
		return
	}

	if params.URI != schema.ResourceURI {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCResourceNotFound, "Resource not found", fmt.Sprintf("Unknown resource '%s'", params.URI))
		return
	}

	payload, err := json.Marshal(schema.Fields())
	if err != nil {
		h.sendJSONRPCError(w, r, req.ID, JSONRPCInternalError, "Internal error", "Failed to serialize schema")
		return
	}

	result := ReadResourceResult{
		Contents: []ResourceContents{
			{
				URI:      schema.ResourceURI,
				MimeType: "application/json",
				Text:     string(payload),
			},
		},
	}

	h.sendJSONRPCResult(w, r, req.ID, result)
}

// parseSort converts [field, direction] pairs into the executor's sort
// specification, preserving order.
func parseSort(raw [][]any) ([]query.SortField, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	sort := make([]query.SortField, 0, len(raw))
	for i, pair := range raw {
		if len(pair) != 2 {
			return nil, fmt.Errorf("sort entry %d must be a [field, direction] pair", i)
		}

		field, ok := pair[0].(string)
		if !ok || field == "" {
			return nil, fmt.Errorf("sort entry %d: field must be a non-empty string", i)
		}

		direction, ok := pair[1].(float64)
		if !ok || (direction != query.Ascending && direction != query.Descending) {
			return nil, fmt.Errorf("sort entry %d: direction must be 1 or -1", i)
		}

		sort = append(sort, query.SortField{Field: field, Direction: int(direction)})
	}

	return sort, nil
}

func (h *Handler) sendJSONRPCResult(w http.ResponseWriter, r *http.Request, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	h.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, http.StatusOK, 0)
}

func (h *Handler) sendJSONRPCError(w http.ResponseWriter, r *http.Request, id interface{}, code int, message string, data interface{}) {
	errorResp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}

	w.WriteHeader(http.StatusOK) // JSON-RPC errors are sent with HTTP 200
	json.NewEncoder(w).Encode(errorResp)

	// The metric carries the status actually written; error discrimination
	// lives in the query metrics, not the transport label.
	h.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, http.StatusOK, 0)
}
