package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/temptick-core/internal/sensors"
)

// indexParam parses a non-negative integer URL parameter.
func indexParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil && n >= 0
}

// UpdateSensorsRequest edits the settings shared by every probe.
type UpdateSensorsRequest struct {
	ReadInterval *int `json:"read_interval"`
}

// UpdateSensorRequest edits one probe. Absent fields are left unchanged.
// With Sync set the resolution is written to the probe itself.
type UpdateSensorRequest struct {
	Name       *string  `json:"name"`
	Address    *string  `json:"address"`
	Resolution *uint8   `json:"resolution"`
	Correction *float32 `json:"correction"`
	Sync       bool     `json:"sync"`
}

// DiscoveredProbe is one address found on the bus.
type DiscoveredProbe struct {
	Address     string  `json:"address"`
	Index       int     `json:"index"` // configured probe using it, or -1
	Temperature float32 `json:"temperature"`
}

// handleAddSensor appends a probe with default settings.
func (s *Server) handleAddSensor(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusCreated, func() (any, error) {
		sen := s.system.Sensors()
		if !sen.Add() {
			return nil, conflict("probe table is full")
		}
		s.system.RequestSave()
		return map[string]int{"index": sen.Count() - 1}, nil
	})
}

// handleUpdateSensors edits the read interval.
func (s *Server) handleUpdateSensors(w http.ResponseWriter, r *http.Request) {
	var req UpdateSensorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	s.respond(w, r, http.StatusOK, func() (any, error) {
		sen := s.system.Sensors()
		if req.ReadInterval != nil {
			sen.SetReadInterval(*req.ReadInterval)
			s.system.RequestSave()
		}
		return map[string]uint8{"read_interval": sen.ReadInterval()}, nil
	})
}

// handleUpdateSensor edits one probe.
func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(r, "index")
	if !ok {
		writeBadRequest(w, "index must be a non-negative integer")
		return
	}
	var req UpdateSensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	var addr sensors.Address
	if req.Address != nil {
		var err error
		if addr, err = sensors.ParseAddress(*req.Address); err != nil || addr.IsZero() {
			writeBadRequest(w, "invalid probe address")
			return
		}
	}

	s.respond(w, r, http.StatusOK, func() (any, error) {
		sen := s.system.Sensors()
		if i >= sen.Count() {
			return nil, notFound("probe not found")
		}
		if req.Name != nil {
			sen.SetName(i, *req.Name)
		}
		if req.Address != nil {
			sen.SetAddress(i, addr, req.Sync)
		}
		if req.Resolution != nil {
			sen.SetResolution(i, *req.Resolution, req.Sync)
		}
		if req.Correction != nil {
			sen.SetCorrection(i, *req.Correction)
		}
		s.system.RequestSave()

		p, _ := sen.Sensor(i)
		return sensorView(i, p), nil
	})
}

// handleDeleteSensor removes a probe. Cloud links bound to its code are
// removed with it.
func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(r, "index")
	if !ok {
		writeBadRequest(w, "index must be a non-negative integer")
		return
	}
	s.respond(w, r, http.StatusNoContent, func() (any, error) {
		if !s.system.Sensors().Delete(i) {
			return nil, notFound("probe not found")
		}
		s.system.RequestSave()
		return nil, nil
	})
}

// handleDiscoverSensors scans the bus and reads every probe found.
func (s *Server) handleDiscoverSensors(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, func() (any, error) {
		sen := s.system.Sensors()
		configured := make([]sensors.Address, 0, sen.Count())
		for _, p := range sen.Sensors() {
			configured = append(configured, p.Address)
		}

		found := sen.DiscoverAddresses()
		probes := make([]DiscoveredProbe, 0, len(found))
		for _, addr := range found {
			probes = append(probes, DiscoveredProbe{
				Address:     addr.String(),
				Index:       sensors.AddressIndex(configured, addr),
				Temperature: sen.ReadTemperatureByAddress(addr),
			})
		}
		return map[string]any{"probes": probes}, nil
	})
}
