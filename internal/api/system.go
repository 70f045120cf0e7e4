package api

import (
	"encoding/json"
	"net/http"
)

// resetAllConfirmation must be sent verbatim to erase the settings.
const resetAllConfirmation = "RESET ALL"

// UpdateSystemRequest edits the sleep settings.
type UpdateSystemRequest struct {
	SleepFlag *bool  `json:"sleep_flag"`
	SleepTime *uint8 `json:"sleep_time"`
}

// ResetAllRequest guards the settings erase.
type ResetAllRequest struct {
	Confirm string `json:"confirm"`
}

// handleUpdateSystem edits the sleep flag and duration.
func (s *Server) handleUpdateSystem(w http.ResponseWriter, r *http.Request) {
	var req UpdateSystemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.respond(w, r, http.StatusOK, func() (any, error) {
		if req.SleepFlag != nil {
			s.system.SetSleepFlag(*req.SleepFlag)
		}
		if req.SleepTime != nil {
			s.system.SetSleepTime(*req.SleepTime)
		}
		s.system.RequestSave()
		return s.snapshot().System, nil
	})
}

// handleReset restarts the device after flushing pending settings.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusAccepted, func() (any, error) {
		s.system.Reset()
		return map[string]string{"status": "restarting"}, nil
	})
}

// handleResetAll erases the stored settings and restarts with defaults.
//
// This is a destructive operation; the request must include an exact
// confirmation string as a safety guard.
func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	var req ResetAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Confirm != resetAllConfirmation {
		writeBadRequest(w, `confirm field must be exactly "`+resetAllConfirmation+`"`)
		return
	}

	s.respond(w, r, http.StatusAccepted, func() (any, error) {
		if err := s.system.ResetAll(); err != nil {
			return nil, err
		}
		return map[string]string{"status": "restarting"}, nil
	})
}
