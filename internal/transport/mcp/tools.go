package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/recall/internal/core"
)

func (s *Server) registerTools() {
	s.registerWriteTools()
	s.registerReadTools()
	s.registerProfileTools()
	s.registerSessionTools()
}

func (s *Server) registerWriteTools() {
	s.mcpServer.AddTool(mcp.NewTool("retain_fact",
		mcp.WithDescription("Store a fact with source, context, confidence and mentioned entities."),
		mcp.WithString("content", mcp.Required(), mcp.Description("The fact text")),
		mcp.WithString("context", mcp.Description("Optional free-text context")),
		mcp.WithString("source", mcp.Description("Producer: telegram, treasury, x, bags_intel, buy_tracker or system")),
		mcp.WithNumber("confidence", mcp.Description("Belief strength in [0, 1], default 1.0")),
		mcp.WithArray("entities", mcp.Description("Entity names; omit to auto-extract from the text")),
	), s.handleRetainFact)

	s.mcpServer.AddTool(mcp.NewTool("retain_preference",
		mcp.WithDescription("Record one piece of preference evidence for a user."),
		mcp.WithString("user", mcp.Required()),
		mcp.WithString("key", mcp.Required()),
		mcp.WithString("value", mcp.Required()),
		mcp.WithString("platform", mcp.Description("Defaults to system")),
		mcp.WithString("category", mcp.Description("Defaults to general")),
		mcp.WithString("evidence", mcp.Description("Free-text evidence for the audit fact")),
		mcp.WithBoolean("confirmed", mcp.Description("False marks a contradiction, default true")),
	), s.handleRetainPreference)

	s.mcpServer.AddTool(mcp.NewTool("archive_fact",
		mcp.WithDescription("Move a fact to the archived state."),
		mcp.WithString("id", mcp.Required()),
	), s.handleArchiveFact)
}

func (s *Server) registerReadTools() {
	s.mcpServer.AddTool(recallTool(), s.handleRecall)

	s.mcpServer.AddTool(mcp.NewTool("recall_by_entity",
		mcp.WithDescription("Facts mentioning an entity, most recent first."),
		mcp.WithString("name", mcp.Required()),
		mcp.WithNumber("k"),
		mcp.WithString("time_filter"),
	), s.handleRecallByEntity)

	s.mcpServer.AddTool(mcp.NewTool("recall_recent",
		mcp.WithDescription("Most recently stored facts."),
		mcp.WithNumber("k"),
		mcp.WithString("source_filter"),
	), s.handleRecallRecent)

	s.mcpServer.AddTool(mcp.NewTool("get_fact",
		mcp.WithDescription("Fetch one fact by id."),
		mcp.WithString("id", mcp.Required()),
	), s.handleGetFact)

	s.mcpServer.AddTool(mcp.NewTool("get_preferences",
		mcp.WithDescription("List the preference ledger for a user."),
		mcp.WithString("user", mcp.Required()),
		mcp.WithString("platform"),
	), s.handleGetPreferences)
}

func (s *Server) registerProfileTools() {
	s.mcpServer.AddTool(mcp.NewTool("create_entity_profile",
		mcp.WithDescription("Create an entity row plus its profile document."),
		mcp.WithString("name", mcp.Required()),
		mcp.WithString("type", mcp.Description("token, user, strategy, platform or other; inferred when omitted")),
		mcp.WithString("summary"),
		mcp.WithString("metadata", mcp.Description("JSON metadata block")),
	), s.handleCreateProfile)

	s.mcpServer.AddTool(mcp.NewTool("get_entity_profile",
		mcp.WithDescription("Read an entity profile document."),
		mcp.WithString("name", mcp.Required()),
	), s.handleGetProfile)

	s.mcpServer.AddTool(mcp.NewTool("update_entity_profile",
		mcp.WithDescription("Update an entity summary."),
		mcp.WithString("name", mcp.Required()),
		mcp.WithString("summary", mcp.Required()),
	), s.handleUpdateProfile)

	s.mcpServer.AddTool(mcp.NewTool("list_entities",
		mcp.WithDescription("List known entities."),
		mcp.WithString("type"),
		mcp.WithNumber("limit"),
	), s.handleListEntities)

	s.mcpServer.AddTool(mcp.NewTool("get_entity_facts",
		mcp.WithDescription("Facts joined through entity mentions, most recent first."),
		mcp.WithString("name", mcp.Required()),
		mcp.WithNumber("k"),
	), s.handleEntityFacts)
}

func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(mcp.NewTool("save_session_context",
		mcp.WithDescription("Create or refresh per-(platform, user) session state."),
		mcp.WithString("platform", mcp.Required()),
		mcp.WithString("user", mcp.Required()),
		mcp.WithString("context", mcp.Required(), mcp.Description("Opaque JSON blob")),
	), s.handleSaveSession)

	s.mcpServer.AddTool(mcp.NewTool("get_session_context",
		mcp.WithDescription("Fetch session state."),
		mcp.WithString("platform", mcp.Required()),
		mcp.WithString("user", mcp.Required()),
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("clear_session_context",
		mcp.WithDescription("Delete session state."),
		mcp.WithString("platform", mcp.Required()),
		mcp.WithString("user", mcp.Required()),
	), s.handleClearSession)
}

func recallTool() mcp.Tool {
	return mcp.NewTool("recall",
		mcp.WithDescription("Hybrid keyword+vector retrieval of stored facts."),
		mcp.WithString("query", mcp.Required()),
		mcp.WithNumber("k", mcp.Description("Max results, default 10")),
		mcp.WithString("time_filter", mcp.Description("today, week, month, quarter, year or all")),
		mcp.WithString("source_filter"),
		mcp.WithString("entity_filter"),
		mcp.WithString("context_filter"),
		mcp.WithNumber("confidence_min"),
		mcp.WithBoolean("include_archived"),
		mcp.WithBoolean("include_embeddings", mcp.Description("Accepted for compatibility; results never carry embeddings")),
		mcp.WithArray("embedding", mcp.Description("Query embedding enabling the semantic path")),
	)
}

func (s *Server) handleRetainFact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	source, err := core.ParseSource(req.GetString("source", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var mentions []core.Mention
	if names := req.GetStringSlice("entities", nil); names != nil {
		mentions = make([]core.Mention, 0, len(names))
		for _, name := range names {
			mentions = append(mentions, core.Mention{Name: name, Type: core.EntityOther, Text: name})
		}
	}

	id, err := s.mem.RetainFact(ctx, core.RetainRequest{
		Content:    content,
		Context:    req.GetString("context", ""),
		Source:     source,
		Confidence: req.GetFloat("confidence", 1.0),
		Entities:   mentions,
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]int64{"fact_id": id})
}

func (s *Server) handleRetainPreference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := req.RequireString("user")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.mem.RetainPreference(ctx, core.PreferenceRequest{
		User:      user,
		Platform:  req.GetString("platform", ""),
		Category:  req.GetString("category", ""),
		Key:       key,
		Value:     value,
		Evidence:  req.GetString("evidence", ""),
		Confirmed: req.GetBool("confirmed", true),
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(result)
}

func (s *Server) handleArchiveFact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.mem.ArchiveFact(ctx, id); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText("archived"), nil
}

func (s *Server) handleRecall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filter, err := core.ParseTimeFilter(req.GetString("time_filter", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source, err := core.ParseSource(req.GetString("source_filter", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.mem.Recall(ctx, core.RecallRequest{
		Query:     query,
		K:         req.GetInt("k", 0),
		Embedding: embeddingArg(req),
		Filters: core.SearchFilters{
			TimeFilter:      filter,
			Source:          source,
			MinConfidence:   req.GetFloat("confidence_min", 0),
			Entity:          req.GetString("entity_filter", ""),
			Context:         req.GetString("context_filter", ""),
			IncludeArchived: req.GetBool("include_archived", false),
		},
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(resp)
}

func (s *Server) handleRecallByEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filter, err := core.ParseTimeFilter(req.GetString("time_filter", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.mem.RecallByEntity(ctx, name, req.GetInt("k", 0), filter)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(resp)
}

func (s *Server) handleRecallRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := core.ParseSource(req.GetString("source_filter", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.mem.RecallRecent(ctx, req.GetInt("k", 0), source)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(resp)
}

func (s *Server) handleGetFact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fact, err := s.mem.GetFact(ctx, id)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(fact)
}

func (s *Server) handleGetPreferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := req.RequireString("user")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prefs, err := s.mem.GetPreferences(ctx, req.GetString("platform", ""), user)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(prefs)
}

func (s *Server) handleCreateProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var typ core.EntityType
	if raw := req.GetString("type", ""); raw != "" {
		typ, err = core.ParseEntityType(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	created, err := s.profiles.Create(ctx, name, typ, req.GetString("summary", ""), req.GetString("metadata", ""))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]bool{"created": created})
}

func (s *Server) handleGetProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.profiles.Get(ctx, name)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(doc), nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary, err := req.RequireString("summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.profiles.UpdateSummary(ctx, name, summary); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText("updated"), nil
}

func (s *Server) handleListEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var typ core.EntityType
	if raw := req.GetString("type", ""); raw != "" {
		var err error
		typ, err = core.ParseEntityType(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	entities, err := s.profiles.List(ctx, typ, req.GetInt("limit", 50))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(entities)
}

func (s *Server) handleEntityFacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	facts, err := s.profiles.FactsFor(ctx, name, req.GetInt("k", 10))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(facts)
}

func (s *Server) handleSaveSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	platform, err := req.RequireString("platform")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	user, err := req.RequireString("user")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	blob, err := req.RequireString("context")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	key, err := s.sessions.Save(ctx, platform, user, blob)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]string{"session_key": key})
}

func (s *Server) handleGetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	platform, err := req.RequireString("platform")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	user, err := req.RequireString("user")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := s.sessions.Get(ctx, platform, user)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(session)
}

func (s *Server) handleClearSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	platform, err := req.RequireString("platform")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	user, err := req.RequireString("user")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.sessions.Clear(ctx, platform, user); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText("cleared"), nil
}

// toolError maps domain errors onto tool results: expected failures become
// error results, everything else propagates as a protocol error.
func toolError(err error) (*mcp.CallToolResult, error) {
	var validation *core.ValidationError
	if errors.Is(err, core.ErrNotFound) || errors.As(err, &validation) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fact id %q", raw)
	}
	return id, nil
}

// embeddingArg pulls an optional numeric array out of the raw arguments.
func embeddingArg(req mcp.CallToolRequest) []float32 {
	args := req.GetArguments()
	raw, ok := args["embedding"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	embedding := make([]float32, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		embedding = append(embedding, float32(f))
	}
	return embedding
}
