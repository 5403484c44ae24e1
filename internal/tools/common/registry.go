package common

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/axnasim/mcp-server/internal/instrumentation"
)

// Registry holds the tool catalog. Every handler is wrapped with
// InstrumentedToolHandler at registration.
type Registry struct {
	inst  Instruments
	order []string
	tools map[string]mcpserver.ServerTool
}

// NewRegistry creates an empty Registry. inst may be nil.
func NewRegistry(inst Instruments) *Registry {
	return &Registry{
		inst:  inst,
		tools: make(map[string]mcpserver.ServerTool),
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool mcp.Tool, handler mcpserver.ToolHandlerFunc) error {
	if tool.Name == "" {
		return errors.New("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %q has no handler", tool.Name)
	}
	if tool.Name == unknownToolName {
		return fmt.Errorf("tool name %q is reserved", tool.Name)
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %q already registered", tool.Name)
	}
	r.order = append(r.order, tool.Name)
	r.tools[tool.Name] = mcpserver.ServerTool{
		Tool:    tool,
		Handler: InstrumentedToolHandler(tool.Name, r.inst, handler),
	}
	return nil
}

// Known reports whether name is registered.
func (r *Registry) Known(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Tools returns the catalog in registration order.
func (r *Registry) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Tool)
	}
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Call invokes a tool by name. An unknown name yields a single error text
// block "Unknown tool: <name>".
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	st, ok := r.tools[name]
	if !ok {
		r.recordUnknown(ctx, name)
		return mcp.NewToolResultError(UnknownToolText(name)), nil
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return st.Handler(ctx, req)
}

// UnknownToolText is the message for a call to an unregistered tool.
func UnknownToolText(name string) string {
	return "Unknown tool: " + name
}

// unknownToolName is the hidden tool that answers calls to unregistered
// names on a served MCP server. ServerOptions reroutes those calls to it and
// keeps it out of tools/list.
const unknownToolName = "_unknown_tool"

// requestedToolArg carries the name the client asked for into the hidden tool.
const requestedToolArg = "name"

// ServerOptions returns the options an MCP server needs so that a call to an
// unregistered tool gets the "Unknown tool: <name>" result instead of a
// JSON-RPC error. Pass them to NewMCPServer before calling Install.
func (r *Registry) ServerOptions() []mcpserver.ServerOption {
	hooks := &mcpserver.Hooks{}
	hooks.AddBeforeCallTool(func(_ context.Context, _ any, req *mcp.CallToolRequest) {
		if r.Known(req.Params.Name) {
			return
		}
		req.Params.Arguments = map[string]any{requestedToolArg: req.Params.Name}
		req.Params.Name = unknownToolName
	})

	return []mcpserver.ServerOption{
		mcpserver.WithHooks(hooks),
		mcpserver.WithToolFilter(func(_ context.Context, tools []mcp.Tool) []mcp.Tool {
			out := tools[:0:0]
			for _, tool := range tools {
				if tool.Name != unknownToolName {
					out = append(out, tool)
				}
			}
			return out
		}),
	}
}

// Install adds every registered tool to s, plus the hidden tool that
// ServerOptions routes unknown names to.
func (r *Registry) Install(s *mcpserver.MCPServer) {
	tools := make([]mcpserver.ServerTool, 0, len(r.order)+1)
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	tools = append(tools, mcpserver.ServerTool{
		Tool:    mcp.NewTool(unknownToolName),
		Handler: r.handleUnknown,
	})
	s.AddTools(tools...)
}

func (r *Registry) handleUnknown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := req.GetArguments()[requestedToolArg].(string)
	r.recordUnknown(ctx, name)
	return mcp.NewToolResultError(UnknownToolText(name)), nil
}

func (r *Registry) recordUnknown(ctx context.Context, name string) {
	if r.inst == nil {
		return
	}
	label := instrumentation.ToolLabel(name, r.Known)
	invocation := instrumentation.NewToolInvocation(label).
		WithSpanContext(ctx).
		CompleteWithError(errors.New(UnknownToolText(name)))
	r.inst.Metrics().RecordToolInvocation(ctx, label, instrumentation.StatusError, invocation.Duration)
	r.inst.AuditLogger().LogToolInvocation(invocation)
}
