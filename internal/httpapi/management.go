package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/silverdict-go/silverdict/internal/settings"
)

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, []settings.Format{settings.FormatMDX, settings.FormatStarDict, settings.FormatDSL})
}

func (s *Server) handleDictionariesList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.catalog.Dictionaries())
}

type addDictionaryRequest struct {
	settings.Dictionary
	GroupName string `json:"group_name"`
}

func (s *Server) handleDictionaryAdd(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req addDictionaryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.ID == "" {
		existing := map[string]bool{}
		for _, d := range s.catalog.Dictionaries() {
			existing[d.ID] = true
		}
		req.ID = settings.GenerateDictionaryID(req.DisplayName, existing)
	}
	if err := s.catalog.AddDictionary(req.Dictionary); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.GroupName != "" {
		if err := s.catalog.Junction(req.ID, req.GroupName); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dictionaries": s.catalog.Dictionaries(),
	})
}

func (s *Server) handleDictionaryRemove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.catalog.RemoveDictionary(ps.ByName("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dictionaries": s.catalog.Dictionaries()})
}

func (s *Server) handleGroupsList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.catalog.Groups())
}

func (s *Server) handleGroupUpsert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var g settings.Group
	if err := decodeJSON(r, &g); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.catalog.UpsertGroup(g); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.Groups())
}

func (s *Server) handleGroupRemove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.catalog.RemoveGroup(ps.ByName("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.Groups())
}

type junctionRequest struct {
	DictionaryID string `json:"dictionary_id"`
	GroupName    string `json:"group_name"`
}

func (s *Server) handleJunctionAdd(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req junctionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.catalog.Junction(req.DictionaryID, req.GroupName); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": s.catalog.GroupMembers(req.GroupName)})
}

func (s *Server) handleJunctionRemove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dictionaryID := ps.ByName("dictionary")
	groupName := ps.ByName("group")
	if err := s.catalog.RemoveJunction(dictionaryID, groupName); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": s.catalog.GroupMembers(groupName)})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Dir string `json:"dir"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Dir == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dir is required"})
		return
	}
	added, err := s.catalog.Scan(req.Dir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": added, "dictionaries": s.catalog.Dictionaries()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{"history": s.catalog.History()})
}

func (s *Server) handleSuggestionCapGet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]int{"suggestion_cap": s.catalog.SuggestionCap()})
}

func (s *Server) handleSuggestionCapSet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		N int `json:"suggestion_cap"`
	}
	if err := decodeJSON(r, &req); err != nil || req.N <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "suggestion_cap must be positive"})
		return
	}
	if err := s.catalog.SetSuggestionCap(req.N); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"suggestion_cap": s.catalog.SuggestionCap()})
}
