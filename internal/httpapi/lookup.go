package httpapi

import (
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
)

var (
	mediaTagPattern = regexp.MustCompile(`(?is)<(img|audio|video|source)\b[^>]*>(</(?:audio|video)>)?`)
	anchorPattern   = regexp.MustCompile(`(?is)<a\b[^>]*>(.*?)</a>`)
)

// stripMediaAndLinks removes image/audio/video tags and unwraps anchors
// (keeping their text), since Anki's import format has no equivalent for
// this engine's /api/cache/ media references or in-app navigation links.
func stripMediaAndLinks(html string) string {
	html = mediaTagPattern.ReplaceAllString(html, "")
	return anchorPattern.ReplaceAllString(html, "$1")
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	group := ps.ByName("group")
	key := ps.ByName("key")

	suggestions, err := s.engine.Suggestions(r.Context(), group, key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	group := ps.ByName("group")
	key := ps.ByName("key")

	results, err := s.engine.Query(r.Context(), group, key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	includeDicts := r.URL.Query().Get("dicts") != ""
	if len(results) == 0 {
		suggestions, sErr := s.engine.Suggestions(r.Context(), group, key)
		if sErr != nil {
			suggestions = nil
		}
		resp := map[string]any{"found": false, "suggestions": suggestions}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	var body strings.Builder
	dicts := make([]string, 0, len(results))
	for i, a := range results {
		if i > 0 {
			body.WriteString("\n<hr />\n")
		}
		body.WriteString(a.Body)
		dicts = append(dicts, a.DictionaryID)
	}

	resp := map[string]any{"found": true, "articles": body.String()}
	if includeDicts {
		resp["dictionaries"] = dicts
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLegacyLookup preserves /api/lookup/<dictionary>/<key> for callers
// that address a single dictionary directly rather than a group.
func (s *Server) handleLegacyLookup(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dictionaryID := ps.ByName("dictionary")
	key := ps.ByName("key")

	body, err := s.engine.Lookup(r.Context(), dictionaryID, key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleAnki(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	group := ps.ByName("group")
	word := ps.ByName("word")

	results, err := s.engine.Query(r.Context(), group, word)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body strings.Builder
	for i, a := range results {
		if i > 0 {
			body.WriteString("\n<hr />\n")
		}
		body.WriteString(stripMediaAndLinks(a.Body))
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": body.String()})
}

func (s *Server) handleFTS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	group := ps.ByName("group")
	query := ps.ByName("query")

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.engine.FTS(r.Context(), group, query, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": results})
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rel := strings.TrimPrefix(ps.ByName("path"), "/")
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") || filepath.IsAbs(clean) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid path"})
		return
	}
	http.ServeFile(w, r, filepath.Join(s.cacheRoot, clean))
}
