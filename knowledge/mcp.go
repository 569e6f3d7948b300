package knowledge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/knowbase/kit"
)

// RegisterMCP registers document lifecycle tools on an MCP server, in
// addition to the extraction tools registered by the pipeline.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerAddTool(srv)
	svc.registerListTool(srv)
	svc.registerResetTool(srv)
	svc.registerProcessTool(srv)
	svc.registerStatsTool(srv)
}

// mcpLogged wraps a tool endpoint with invocation logging.
func (svc *Service) mcpLogged(name string, endpoint kit.Endpoint) kit.Endpoint {
	logging := func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				svc.logger.Warn("mcp: tool failed", "tool", name, "error", err, "duration", time.Since(start).String())
			} else {
				svc.logger.Debug("mcp: tool ok", "tool", name, "duration", time.Since(start).String())
			}
			return resp, err
		}
	}
	return kit.Chain(logging)(endpoint)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func decodeInto[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r T
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

// --- add_document ---

type addDocumentReq struct {
	AccountID   string `json:"account_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DocType     string `json:"doc_type"`
	Content     string `json:"content"`
	FilePath    string `json:"file_path"`
	WebsiteURL  string `json:"website_url"`
}

func (svc *Service) registerAddTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "add_document",
		Description: "Queue a document (inline text, file path, or website URL) for ingestion.",
		InputSchema: inputSchema(map[string]any{
			"account_id":  map[string]any{"type": "string", "description": "Owning account"},
			"name":        map[string]any{"type": "string", "description": "Display name (optional)"},
			"description": map[string]any{"type": "string", "description": "Free-form description (optional)"},
			"doc_type":    map[string]any{"type": "string", "enum": []string{TypeText, TypeFile, TypeWebsite, TypeImage}},
			"content":     map[string]any{"type": "string", "description": "Inline text for doc_type=text"},
			"file_path":   map[string]any{"type": "string", "description": "File path for doc_type=file or image"},
			"website_url": map[string]any{"type": "string", "description": "URL for doc_type=website"},
		}, []string{"account_id", "doc_type"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*addDocumentReq)
		d := &Document{
			Name:        r.Name,
			Description: r.Description,
			DocType:     r.DocType,
			Content:     r.Content,
			FilePath:    r.FilePath,
			WebsiteURL:  r.WebsiteURL,
		}
		if err := svc.AddDocument(ctx, r.AccountID, d); err != nil {
			return nil, err
		}
		return map[string]any{"id": d.ID, "status": d.Status}, nil
	}

	kit.RegisterMCPTool(srv, tool, svc.mcpLogged(tool.Name, endpoint), decodeInto[addDocumentReq])
}

// --- list_documents ---

type listDocumentsReq struct {
	AccountID string `json:"account_id"`
	Status    string `json:"status"`
	Limit     int    `json:"limit"`
}

func (svc *Service) registerListTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "list_documents",
		Description: "List an account's documents, newest first, optionally filtered by status.",
		InputSchema: inputSchema(map[string]any{
			"account_id": map[string]any{"type": "string"},
			"status":     map[string]any{"type": "string", "enum": []string{StatusPending, StatusProcessing, StatusCompleted, StatusIndexed, StatusError}},
			"limit":      map[string]any{"type": "integer"},
		}, []string{"account_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*listDocumentsReq)
		docs, err := svc.ListDocuments(ctx, r.AccountID, r.Status, r.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"documents": docs, "count": len(docs)}, nil
	}

	kit.RegisterMCPTool(srv, tool, svc.mcpLogged(tool.Name, endpoint), decodeInto[listDocumentsReq])
}

// --- reset_document ---

type documentIDReq struct {
	ID string `json:"id"`
}

func (svc *Service) registerResetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "reset_document",
		Description: "Return a document to pending so it is reprocessed on the next sweep.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Document ID"},
		}, []string{"id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*documentIDReq)
		if err := svc.ResetDocument(ctx, r.ID); err != nil {
			return nil, err
		}
		return map[string]any{"id": r.ID, "status": StatusPending}, nil
	}

	kit.RegisterMCPTool(srv, tool, svc.mcpLogged(tool.Name, endpoint), decodeInto[documentIDReq])
}

// --- process_document ---

func (svc *Service) registerProcessTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "process_document",
		Description: "Process a pending document immediately instead of waiting for the sweep.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Document ID"},
		}, []string{"id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*documentIDReq)
		if err := svc.ProcessDocument(ctx, r.ID); err != nil {
			return nil, err
		}
		d, err := svc.GetDocument(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": d.ID, "status": d.Status, "error_message": d.ErrorMessage}, nil
	}

	kit.RegisterMCPTool(srv, tool, svc.mcpLogged(tool.Name, endpoint), decodeInto[documentIDReq])
}

// --- document_stats ---

type statsReq struct {
	AccountID string `json:"account_id"`
}

func (svc *Service) registerStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "document_stats",
		Description: "Count documents per lifecycle status.",
		InputSchema: inputSchema(map[string]any{
			"account_id": map[string]any{"type": "string", "description": "Account filter (optional)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*statsReq)
		return svc.Stats(ctx, r.AccountID)
	}

	kit.RegisterMCPTool(srv, tool, svc.mcpLogged(tool.Name, endpoint), decodeInto[statsReq])
}
