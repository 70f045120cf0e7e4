package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// UpdateCloudRequest edits the dashboard link.
type UpdateCloudRequest struct {
	Work *bool   `json:"work"`
	Auth *string `json:"auth"`
}

// LinkRequest creates or edits a link. Absent fields are left unchanged; a
// new link's port defaults to its index.
type LinkRequest struct {
	Port *uint8  `json:"port"`
	Code *string `json:"code"`
}

// PortWriteRequest is the dashboard webhook body.
type PortWriteRequest struct {
	Value float32 `json:"value"`
}

// handleUpdateCloud edits the work flag and token. A new token reconnects
// on the next tick.
func (s *Server) handleUpdateCloud(w http.ResponseWriter, r *http.Request) {
	var req UpdateCloudRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.respond(w, r, http.StatusOK, func() (any, error) {
		cl := s.system.Cloud()
		if req.Work != nil {
			cl.SetWork(*req.Work)
		}
		if req.Auth != nil {
			cl.SetAuth(*req.Auth)
		}
		s.system.RequestSave()
		return s.snapshot().Cloud, nil
	})
}

// handleAddLink appends a link.
func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.respond(w, r, http.StatusCreated, func() (any, error) {
		cl := s.system.Cloud()
		if !cl.AddLink() {
			return nil, conflict("link table is full")
		}
		i := cl.LinkCount() - 1
		applyLink(s, i, req)
		s.system.RequestSave()
		l, _ := cl.Link(i)
		return map[string]any{"index": i, "link": l}, nil
	})
}

// handleUpdateLink edits link {index}.
func (s *Server) handleUpdateLink(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(r, "index")
	if !ok {
		writeBadRequest(w, "index must be a non-negative integer")
		return
	}
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.respond(w, r, http.StatusOK, func() (any, error) {
		cl := s.system.Cloud()
		if i >= cl.LinkCount() {
			return nil, notFound("link not found")
		}
		applyLink(s, i, req)
		s.system.RequestSave()
		l, _ := cl.Link(i)
		return l, nil
	})
}

func applyLink(s *Server, i int, req LinkRequest) {
	cl := s.system.Cloud()
	if req.Port != nil {
		cl.SetLinkPort(i, *req.Port)
	}
	if req.Code != nil {
		cl.SetLinkCode(i, *req.Code)
	}
}

// handleDeleteLink removes link {index}.
func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(r, "index")
	if !ok {
		writeBadRequest(w, "index must be a non-negative integer")
		return
	}
	s.respond(w, r, http.StatusNoContent, func() (any, error) {
		if !s.system.Cloud().DeleteLink(i) {
			return nil, notFound("link not found")
		}
		s.system.RequestSave()
		return nil, nil
	})
}

// handleCloudPortWrite is the dashboard webhook. The value is handed to the
// cloud transport here, on the HTTP goroutine; the cloud manager applies
// it on its next tick.
func (s *Server) handleCloudPortWrite(w http.ResponseWriter, r *http.Request) {
	port, err := strconv.ParseUint(chi.URLParam(r, "port"), 10, 8)
	if err != nil {
		writeBadRequest(w, "port must be between 0 and 255")
		return
	}
	var req PortWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if s.cloud == nil {
		writeUnavailable(w, "cloud link not configured")
		return
	}
	if err := s.cloud.RemoteWrite(uint8(port), req.Value); err != nil {
		writeUnavailable(w, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"port": port, "value": req.Value})
}
