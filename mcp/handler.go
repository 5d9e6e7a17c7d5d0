package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/foomo/onenote-mcp/hierarchy"
	"github.com/foomo/onenote-mcp/service"
	"github.com/foomo/onenote-mcp/service/vo"
)

const Version = "0.0.1"

type QueryRequest struct {
	Scope       string `json:"scope"`                 // self | children | notebooks | sections | pages
	StartNodeID string `json:"startNodeId,omitempty"` // empty = hierarchy root
	Name        string `json:"name,omitempty"`        // wildcard name filter on the subtree's children
	Current     bool   `json:"current,omitempty"`     // select the currently active child instead
}

type QueryResponse struct {
	Node    *vo.Node  `json:"node,omitempty"`
	Matches []vo.Node `json:"matches,omitempty"`
}

type ReorderRequest struct {
	ParentID string `json:"parentId"`
	ChildID  string `json:"childId"`
	Position int    `json:"position"`
}

type TransformRequest struct {
	PageID     string `json:"pageId"`
	Persist    bool   `json:"persist,omitempty"`
	IncludeXML bool   `json:"includeXml,omitempty"`
}

// NewServer creates the MCP server exposing the hierarchy engine's
// operations as tools.
func NewServer(logger *zap.Logger, serviceInstance service.Service) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := server.NewMCPServer(
		"OneNote Hierarchy MCP",
		Version,
		server.WithToolCapabilities(false),
	)

	queryTool := mcp.NewTool("queryHierarchy",
		mcp.WithDescription("Query the notebook hierarchy at a given scope, optionally filtering children by name pattern or currently-active flag"),
		mcp.WithString("scope",
			mcp.Required(),
			mcp.Description("How far to expand: self, children, notebooks, sections or pages"),
		),
		mcp.WithString("startNodeId",
			mcp.Description("Node to start from; empty queries the whole hierarchy"),
		),
		mcp.WithString("name",
			mcp.Description("Wildcard pattern (*, ?) or literal prefix to filter the subtree's children by name"),
		),
		mcp.WithBoolean("current",
			mcp.Description("Return the currently active child instead of all children"),
		),
	)
	s.AddTool(queryTool, mcp.NewTypedToolHandler(getQueryHandler(logger, serviceInstance)))

	reorderTool := mcp.NewTool("reorderChild",
		mcp.WithDescription("Move one child of a node to a zero-based position among its siblings, keeping all other siblings in order"),
		mcp.WithString("parentId",
			mcp.Required(),
			mcp.Description("ID of the parent node"),
		),
		mcp.WithString("childId",
			mcp.Required(),
			mcp.Description("ID of the child to move"),
		),
		mcp.WithNumber("position",
			mcp.Required(),
			mcp.Description("Zero-based target position among the siblings"),
		),
	)
	s.AddTool(reorderTool, mcp.NewTypedToolHandler(getReorderHandler(logger, serviceInstance)))

	spacingTool := mcp.NewTool("fixHeadingSpacing",
		mcp.WithDescription("Normalize the space-before of all h1-styled headings on a page and clear element-level overrides"),
		mcp.WithString("pageId",
			mcp.Required(),
			mcp.Description("ID of the page to normalize"),
		),
		mcp.WithBoolean("persist",
			mcp.Description("Write the mutated page back to the host"),
		),
		mcp.WithBoolean("includeXml",
			mcp.Description("Include the resulting page XML in the response"),
		),
	)
	s.AddTool(spacingTool, mcp.NewTypedToolHandler(getSpacingHandler(serviceInstance)))

	tocTool := mcp.NewTool("rebuildTOC",
		mcp.WithDescription("Rebuild the table of contents of a page from its h1-styled headings; repeated runs replace prior generated entries"),
		mcp.WithString("pageId",
			mcp.Required(),
			mcp.Description("ID of the page to rebuild the TOC for"),
		),
		mcp.WithBoolean("persist",
			mcp.Description("Write the mutated page back to the host"),
		),
		mcp.WithBoolean("includeXml",
			mcp.Description("Include the resulting page XML in the response"),
		),
	)
	s.AddTool(tocTool, mcp.NewTypedToolHandler(getTOCHandler(serviceInstance)))

	return s
}

func getQueryHandler(logger *zap.Logger, serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args QueryRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args QueryRequest) (*mcp.CallToolResult, error) {
		if args.Scope == "" {
			return mcp.NewToolResultError("scope is required"), nil
		}
		scope, err := hierarchy.ParseScope(args.Scope)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		node, err := serviceInstance.Query(ctx, scope, args.StartNodeID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to query hierarchy: %v", err)), nil
		}

		response := QueryResponse{}
		switch {
		case args.Current:
			current, err := serviceInstance.FindCurrent(node.Children)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if current != nil {
				view := vo.FromNode(current)
				response.Node = &view
			}
		case args.Name != "":
			response.Matches = vo.FromNodes(serviceInstance.FilterByName(node.Children, args.Name))
		default:
			view := vo.FromNode(node)
			response.Node = &view
		}

		return jsonResult(response)
	}
}

func getReorderHandler(logger *zap.Logger, serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args ReorderRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ReorderRequest) (*mcp.CallToolResult, error) {
		if args.ParentID == "" {
			return mcp.NewToolResultError("parentId is required"), nil
		}
		if args.ChildID == "" {
			return mcp.NewToolResultError("childId is required"), nil
		}

		parent, err := serviceInstance.Query(ctx, hierarchy.ScopeChildren, args.ParentID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to query parent: %v", err)), nil
		}

		response := vo.SiblingOrder{ParentID: args.ParentID}
		parent, err = serviceInstance.Reorder(parent, args.ChildID, args.Position)
		if err != nil {
			if !errors.Is(err, service.ErrPositionOutOfBounds) {
				return mcp.NewToolResultError(fmt.Sprintf("failed to reorder: %v", err)), nil
			}
			// Reported condition, not a failure: the order is unchanged.
			response.Condition = err.Error()
			logger.Warn("reorder reported condition", zap.String("parentId", args.ParentID), zap.Error(err))
		}
		response.Order = vo.FromNodes(parent.Children)

		return jsonResult(response)
	}
}

func getSpacingHandler(serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args TransformRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args TransformRequest) (*mcp.CallToolResult, error) {
		if args.PageID == "" {
			return mcp.NewToolResultError("pageId is required"), nil
		}
		result, err := serviceInstance.NormalizeHeadingSpacing(ctx, service.TransformInput{
			PageID:  args.PageID,
			Persist: args.Persist,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to normalize heading spacing: %v", err)), nil
		}
		return transformResult(result, args.IncludeXML)
	}
}

func getTOCHandler(serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args TransformRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args TransformRequest) (*mcp.CallToolResult, error) {
		if args.PageID == "" {
			return mcp.NewToolResultError("pageId is required"), nil
		}
		result, err := serviceInstance.RebuildTOC(ctx, service.TransformInput{
			PageID:  args.PageID,
			Persist: args.Persist,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to rebuild TOC: %v", err)), nil
		}
		return transformResult(result, args.IncludeXML)
	}
}

func transformResult(result *service.TransformResult, includeXML bool) (*mcp.CallToolResult, error) {
	summary := vo.TransformSummary{
		PageID:    result.Content.PageID(),
		Headings:  result.Headings,
		Changed:   result.Changed,
		Persisted: result.Persisted,
	}
	if includeXML {
		raw, err := result.Content.XML()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to serialize page content: %v", err)), nil
		}
		summary.XML = raw
	}
	return jsonResult(summary)
}

func jsonResult(response any) (*mcp.CallToolResult, error) {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseBytes)), nil
}
