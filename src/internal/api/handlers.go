// FILE: logvault/src/internal/api/handlers.go
package api

import (
	"bytes"
	"fmt"

	"logvault/src/internal/core"
	"logvault/src/internal/query"
	"logvault/src/internal/version"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

// Single-field lookup routes and the query parameter each one reads
var fieldRoutes = map[string]string{
	"/logsByResourceId":       "resourceId",
	"/logsByTraceId":          "traceId",
	"/logsBySpanId":           "spanId",
	"/logsByCommit":           "commit",
	"/logsByParentResourceId": "parentResourceId",
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(ctx *fasthttp.RequestCtx) {
	var req credentials
	if err := decodeObject(ctx.PostBody(), &req); err != nil {
		s.writeError(ctx, err)
		return
	}

	id, err := s.deps.Auth.Register(ctx, req.Username, req.Password, req.Role)
	if err != nil {
		s.deps.Metrics.AuthEvent("register", "failure")
		s.writeError(ctx, err)
		return
	}

	s.deps.Metrics.AuthEvent("register", "success")
	writeJSON(ctx, fasthttp.StatusCreated, map[string]string{
		"message": "User registered successfully",
		"id":      id,
	})
}

func (s *Server) handleLogin(ctx *fasthttp.RequestCtx) {
	var req credentials
	if err := decodeObject(ctx.PostBody(), &req); err != nil {
		s.writeError(ctx, err)
		return
	}

	token, err := s.deps.Auth.Login(ctx, req.Username, req.Password, ctx.RemoteAddr().String())
	if err != nil {
		s.deps.Metrics.AuthEvent("login", "failure")
		s.writeError(ctx, err)
		return
	}

	s.deps.Metrics.AuthEvent("login", "success")
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleIngest(ctx *fasthttp.RequestCtx) {
	identity, ok := IdentityFrom(ctx)
	if !ok {
		s.writeError(ctx, core.ErrAuthMissing)
		return
	}

	var record core.LogRecord
	if err := decodeObject(ctx.PostBody(), &record); err != nil {
		s.writeError(ctx, err)
		return
	}

	id, err := s.deps.Ingestor.Ingest(ctx, identity, record)
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	s.deps.Metrics.IncIngested(record.Level)
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{
		"message": "Log ingested successfully",
		"id":      id,
	})
}

func (s *Server) handleSearch(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	records, err := s.deps.Engine.Search(ctx, param(args, "level"), param(args, "q"))
	s.writeRecords(ctx, records, err)
}

func (s *Server) handleByMessage(ctx *fasthttp.RequestCtx) {
	records, err := s.deps.Engine.ByMessage(ctx, param(ctx.QueryArgs(), "message"))
	s.writeRecords(ctx, records, err)
}

func (s *Server) handleByTimestampRange(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	parent := param(args, "metadata.parentResourceId")
	if !parent.Set {
		parent = param(args, "parentResourceId")
	}

	records, err := s.deps.Engine.ByTimestampRange(ctx, query.RangeParams{
		Level:            param(args, "level"),
		Message:          param(args, "message"),
		ResourceID:       param(args, "resourceId"),
		ParentResourceID: parent,
		StartDate:        param(args, "startDate"),
		EndDate:          param(args, "endDate"),
	})
	s.writeRecords(ctx, records, err)
}

func (s *Server) fieldHandler(path, name string) fasthttp.RequestHandler {
	field, ok := query.FieldForParam(name)
	if !ok {
		panic(fmt.Sprintf("route %s: no field for parameter %q", path, name))
	}
	return func(ctx *fasthttp.RequestCtx) {
		records, err := s.deps.Engine.ByField(ctx, field, param(ctx.QueryArgs(), name))
		s.writeRecords(ctx, records, err)
	}
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	status := map[string]any{
		"service": "LogVault",
		"version": version.Short(),
		"build":   version.Info(),
		"server":  s.GetStats(),
		"components": map[string]any{
			"auth":   s.deps.Auth.GetStats(),
			"ingest": s.deps.Ingestor.GetStats(),
			"query":  s.deps.Engine.GetStats(),
			"store":  s.deps.Store.GetStats(),
		},
		"metrics": map[string]any{
			"enabled": s.metricsPath != "",
			"path":    s.metricsPath,
		},
	}
	writeJSON(ctx, fasthttp.StatusOK, status)
}

func (s *Server) writeRecords(ctx *fasthttp.RequestCtx, records []core.LogRecord, err error) {
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	if records == nil {
		records = []core.LogRecord{}
	}
	s.deps.Metrics.ObserveQuery(string(ctx.Path()), len(records))
	writeJSON(ctx, fasthttp.StatusOK, records)
}

// param reads an optional query parameter, keeping "?x=" distinct from a missing x
func param(args *fasthttp.Args, name string) query.Param {
	if !args.Has(name) {
		return query.Unset
	}
	return query.Value(string(args.Peek(name)))
}

// decodeObject decodes a JSON object body. An empty body is an empty object.
func decodeObject(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("%w: body must be a JSON object", core.ErrBadRequest)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", core.ErrBadRequest, err)
	}
	return nil
}
