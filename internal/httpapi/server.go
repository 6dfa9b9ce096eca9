// Package httpapi implements the HTTP surface over QueryEngine and
// Settings: lookup endpoints for the dictionary-viewing UI, management
// endpoints for the catalog, and the cached-resource file server. Routing
// follows the julienschmidt/httprouter idiom demonstrated in the example
// pack's dolthub-dolt repo, since the teacher carries no HTTP server of
// its own (its only network surface is a JSON-RPC daemon over a local
// socket, not a fit for this group of path-parameterized REST routes).
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
	"github.com/silverdict-go/silverdict/internal/queryengine"
	"github.com/silverdict-go/silverdict/internal/settings"
)

// Server wires QueryEngine and the settings catalog into an http.Handler.
type Server struct {
	engine    *queryengine.Engine
	catalog   *settings.Catalog
	cacheRoot string
	log       *slog.Logger
	router    *httprouter.Router
}

// New builds a Server. cacheRoot is the directory /api/cache serves
// extracted resource files (images, audio, stylesheets) from.
func New(engine *queryengine.Engine, catalog *settings.Catalog, cacheRoot string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{engine: engine, catalog: catalog, cacheRoot: cacheRoot, log: log, router: httprouter.New()}
	s.routes()
	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.GET("/api/suggestions/:group/:key", s.handleSuggestions)
	s.router.GET("/api/query/:group/:key", s.handleQuery)
	s.router.GET("/api/lookup/:dictionary/:key", s.handleLegacyLookup)
	s.router.GET("/api/anki/:group/:word", s.handleAnki)
	s.router.GET("/api/fts/:group/:query", s.handleFTS)
	s.router.GET("/api/cache/*path", s.handleCache)

	s.router.GET("/api/management/formats", s.handleFormats)
	s.router.GET("/api/management/dictionaries", s.handleDictionariesList)
	s.router.POST("/api/management/dictionaries", s.handleDictionaryAdd)
	s.router.DELETE("/api/management/dictionaries/:id", s.handleDictionaryRemove)
	s.router.GET("/api/management/groups", s.handleGroupsList)
	s.router.POST("/api/management/groups", s.handleGroupUpsert)
	s.router.DELETE("/api/management/groups/:name", s.handleGroupRemove)
	s.router.POST("/api/management/junction", s.handleJunctionAdd)
	s.router.DELETE("/api/management/junction/:dictionary/:group", s.handleJunctionRemove)
	s.router.POST("/api/management/scan", s.handleScan)
	s.router.GET("/api/management/history", s.handleHistory)
	s.router.GET("/api/management/suggestion_cap", s.handleSuggestionCapGet)
	s.router.PUT("/api/management/suggestion_cap", s.handleSuggestionCapSet)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForError maps an EngineError's category to an HTTP status code.
func statusForError(err error) int {
	ee, ok := err.(*engineerrs.EngineError)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ee.Category {
	case engineerrs.CategoryNotFound:
		return http.StatusNotFound
	case engineerrs.CategoryConfig:
		return http.StatusBadRequest
	case engineerrs.CategoryFormat:
		return http.StatusUnprocessableEntity
	case engineerrs.CategoryExternal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	s.log.Warn("request failed", "path", r.URL.Path, "error", err, "status", status)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
