package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dotmeta-dev/dotmeta/metadata"
	"github.com/dotmeta-dev/dotmeta/metadata/loader"
	"github.com/dotmeta-dev/dotmeta/metadata/registry"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// FileResponse describes the loaded file as a whole.
type FileResponse struct {
	SessionID string         `json:"session_id"`
	Version   string         `json:"version"`
	Entities  int            `json:"entities"`
	Tables    []TableSummary `json:"tables"`
}

// TableSummary is one table's row count.
type TableSummary struct {
	Name string `json:"name"`
	ID   uint8  `json:"id"`
	Rows uint32 `json:"rows"`
}

// TableResponse is one table with its resolved rows.
type TableResponse struct {
	Name     string          `json:"name"`
	ID       uint8           `json:"id"`
	Rows     uint32          `json:"rows"`
	Entities []EntitySummary `json:"entities"`
}

// EntitySummary is the wire form of one resolved entity.
type EntitySummary struct {
	Token     string `json:"token"`
	Table     string `json:"table"`
	Row       uint32 `json:"row"`
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the read-only inspection API over a loaded file.
//
// Routes:
//
//	GET /healthz          - liveness probe
//	GET /tables           - version, entity total, per-table row counts
//	GET /tables/{name}    - one table's resolved rows
//	GET /tokens/{token}   - one entity by token
func NewRouter(f *metadata.File, log *zap.Logger) chi.Router {
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/tables", func(w http.ResponseWriter, req *http.Request) {
		resp := FileResponse{
			SessionID: f.SessionID.String(),
			Version:   f.Root.Version,
			Entities:  f.Registry.Len(),
		}
		for _, id := range f.Stream.Present() {
			resp.Tables = append(resp.Tables, TableSummary{
				Name: id.String(),
				ID:   uint8(id),
				Rows: f.Stream.RowCount(id),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/tables/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		id, ok := token.ParseTableID(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown table " + name})
			return
		}

		resp := TableResponse{
			Name:     id.String(),
			ID:       uint8(id),
			Rows:     f.Stream.RowCount(id),
			Entities: []EntitySummary{},
		}
		for _, e := range f.Registry.Table(id) {
			resp.Entities = append(resp.Entities, summarize(e))
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/tokens/{token}", func(w http.ResponseWriter, req *http.Request) {
		raw := chi.URLParam(req, "token")
		tok, err := token.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		e, ok := f.Entity(tok)
		if !ok {
			log.Debug("token lookup missed",
				zap.String("request_id", middleware.GetReqID(req.Context())),
				zap.Stringer("token", tok),
			)
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no entity for token " + tok.String()})
			return
		}
		writeJSON(w, http.StatusOK, summarize(e))
	})

	return r
}

// summarize extracts the wire form of an entity; kinds without a name
// field leave Name empty.
func summarize(e registry.Entity) EntitySummary {
	tok := e.Token()
	s := EntitySummary{
		Token: tok.String(),
		Table: tok.Table().String(),
		Row:   tok.Row(),
	}
	switch v := e.(type) {
	case *loader.Module:
		s.Name = v.Name
	case *loader.ModuleRef:
		s.Name = v.Name
	case *loader.Assembly:
		s.Name = v.Name
	case *loader.AssemblyRef:
		s.Name = v.Name
	case *loader.TypeRef:
		s.Name, s.Namespace = v.Name, v.Namespace
	case *loader.TypeDef:
		s.Name, s.Namespace = v.Name, v.Namespace
	case *loader.Field:
		s.Name = v.Name
	case *loader.Param:
		s.Name = v.Name
	case *loader.Property:
		s.Name = v.Name
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
