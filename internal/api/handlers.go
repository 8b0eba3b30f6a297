package api

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/esquery/internal/compiler"
	"github.com/roach88/esquery/internal/planner"
	"github.com/roach88/esquery/internal/queryir"
)

// CompileResponse is the planned request for a filter document.
type CompileResponse struct {
	Index    string          `json:"index"`
	OpaqueID string          `json:"opaque_id"`
	Body     json.RawMessage `json:"body"`
}

// CountResponse carries a match count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// GroupResponse is one group of a grouped query.
type GroupResponse struct {
	Key   map[string]any `json:"key"`
	Count int64          `json:"count"`
	Items []any          `json:"items"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) compile(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	req, err := s.planner(c).Plan(q)
	if err != nil {
		s.sendPlanError(c, err)
		return
	}
	body, err := json.Marshal(req)
	if err != nil {
		s.sendPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, CompileResponse{Index: req.Index, OpaqueID: req.OpaqueID, Body: body})
}

func (s *Server) search(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	list, err := planner.ToList[any](c.Request.Context(), s.planner(c), q)
	if err != nil {
		s.sendPlanError(c, err)
		return
	}
	if list.Items == nil {
		list.Items = []any{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) count(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	n, err := s.planner(c).Count(c.Request.Context(), q)
	if err != nil {
		s.sendPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: n})
}

func (s *Server) group(c *gin.Context) {
	q, ok := s.bindQuery(c)
	if !ok {
		return
	}
	groups, err := planner.GroupBy[any](c.Request.Context(), s.planner(c), q)
	if err != nil {
		s.sendPlanError(c, err)
		return
	}
	out := make([]GroupResponse, len(groups))
	for i, g := range groups {
		items := g.Items
		if items == nil {
			items = []any{}
		}
		out[i] = GroupResponse{Key: g.Key.Map(), Count: g.Count, Items: items}
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

// bindQuery decodes the request body as a filter document and builds the
// query. It writes the error response itself and reports false on failure.
func (s *Server) bindQuery(c *gin.Context) (queryir.Query, bool) {
	body, err := c.GetRawData()
	if err != nil {
		s.sendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "read request body: "+err.Error())
		return queryir.Query{}, false
	}
	q, err := compiler.Compile(body, formatOf(c.ContentType()), "request.cue")
	if err != nil {
		s.sendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, err.Error())
		return queryir.Query{}, false
	}
	return q, true
}

func formatOf(contentType string) compiler.Format {
	media, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return compiler.FormatJSON
	}
	switch media {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return compiler.FormatYAML
	case "application/cue", "text/cue":
		return compiler.FormatCUE
	}
	return compiler.FormatJSON
}
