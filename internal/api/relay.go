package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/temptick-core/internal/relay"
)

// UpdateRelayRequest edits the relay. On switches the output directly; in
// thermostat mode the next control step may override it.
type UpdateRelayRequest struct {
	On          *bool    `json:"on"`
	Invert      *bool    `json:"invert"`
	Mode        *string  `json:"mode"`
	SensorIndex *int     `json:"sensor_index"`
	Target      *float32 `json:"target"`
	Delta       *float32 `json:"delta"`
	ThermoMode  *string  `json:"thermo_mode"`
	Fallback    *bool    `json:"fallback"`
}

func (req UpdateRelayRequest) changesSettings() bool {
	return req.Invert != nil || req.Mode != nil || req.SensorIndex != nil ||
		req.Target != nil || req.Delta != nil || req.ThermoMode != nil || req.Fallback != nil
}

// handleUpdateRelay edits the relay settings or switches it.
func (s *Server) handleUpdateRelay(w http.ResponseWriter, r *http.Request) {
	var req UpdateRelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var mode relay.Mode
	var thermo relay.ThermoMode
	var err error
	if req.Mode != nil {
		if mode, err = relay.ParseMode(*req.Mode); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
	}
	if req.ThermoMode != nil {
		if thermo, err = relay.ParseThermoMode(*req.ThermoMode); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
	}

	s.respond(w, r, http.StatusOK, func() (any, error) {
		rel := s.system.Relay()
		if req.Invert != nil {
			rel.SetInvert(*req.Invert)
		}
		if req.Mode != nil {
			rel.SetMode(mode)
		}
		if req.SensorIndex != nil {
			rel.SetSensorIndex(*req.SensorIndex)
		}
		if req.Target != nil {
			rel.SetTarget(*req.Target)
		}
		if req.Delta != nil {
			rel.SetDelta(*req.Delta)
		}
		if req.ThermoMode != nil {
			rel.SetThermoMode(thermo)
		}
		if req.Fallback != nil {
			rel.SetFallback(*req.Fallback)
		}
		if req.On != nil {
			rel.SetRelay(*req.On, false)
		}
		if req.changesSettings() {
			s.system.RequestSave()
		}
		return s.snapshot().Relay, nil
	})
}
