package api

import (
	"encoding/json"
	"net/http"
)

// UpdateMQTTRequest edits the broker settings. A missing password keeps
// the stored one.
type UpdateMQTTRequest struct {
	Work     *bool   `json:"work"`
	Server   *string `json:"server"`
	Port     *uint16 `json:"port"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// handleUpdateMQTT edits the broker link. Changing the server or access
// reconnects on the next tick.
func (s *Server) handleUpdateMQTT(w http.ResponseWriter, r *http.Request) {
	var req UpdateMQTTRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.respond(w, r, http.StatusOK, func() (any, error) {
		mq := s.system.MQTT()
		if req.Work != nil {
			mq.SetWork(*req.Work)
		}
		if req.Server != nil || req.Port != nil {
			server, port := mq.Server()
			if req.Server != nil {
				server = *req.Server
			}
			if req.Port != nil {
				port = *req.Port
			}
			mq.SetServer(server, port)
		}
		if req.Username != nil || req.Password != nil {
			user, pass := mq.Access()
			mq.SetAccess(valueOr(req.Username, user), valueOr(req.Password, pass))
		}
		s.system.RequestSave()
		return s.snapshot().MQTT, nil
	})
}
