package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nerrad567/temptick-core/internal/cloud"
	"github.com/nerrad567/temptick-core/internal/scalar"
	"github.com/nerrad567/temptick-core/internal/sensors"
	"github.com/nerrad567/temptick-core/internal/system"
)

// StateResponse is the full device state. Secrets are omitted.
type StateResponse struct {
	Device  string      `json:"device"`
	Version string      `json:"version"`
	System  SystemView  `json:"system"`
	Sensors SensorsView `json:"sensors"`
	Relay   RelayView   `json:"relay"`
	Network NetworkView `json:"network"`
	MQTT    MQTTView    `json:"mqtt"`
	Cloud   CloudView   `json:"cloud"`
}

// SystemView is the orchestrator state.
type SystemView struct {
	SleepFlag    bool                `json:"sleep_flag"`
	SleepTime    uint8               `json:"sleep_time"`
	Requirements system.Requirements `json:"requirements"`
	SavePending  bool                `json:"save_pending"`
}

// SensorsView is the probe table.
type SensorsView struct {
	ReadInterval   uint8        `json:"read_interval"`
	DuplicateNames []string     `json:"duplicate_names,omitempty"`
	Probes         []SensorView `json:"probes"`
}

// SensorView is one configured probe.
type SensorView struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Address     string  `json:"address"`
	Resolution  uint8   `json:"resolution"`
	Correction  float32 `json:"correction"`
	Temperature float32 `json:"temperature"`
	Status      string  `json:"status"`
}

func sensorView(i int, p sensors.Sensor) SensorView {
	return SensorView{
		Index:       i,
		Name:        p.Name,
		Code:        p.Code(),
		Address:     p.Address.String(),
		Resolution:  p.Resolution,
		Correction:  p.Correction,
		Temperature: p.Temperature,
		Status:      p.Status.String(),
	}
}

// RelayView is the relay state and thermostat settings.
type RelayView struct {
	On               bool    `json:"on"`
	Invert           bool    `json:"invert"`
	Mode             string  `json:"mode"`
	SensorIndex      int     `json:"sensor_index"`
	Target           float32 `json:"target"`
	Delta            float32 `json:"delta"`
	ThermoMode       string  `json:"thermo_mode"`
	Fallback         bool    `json:"fallback"`
	ThermostatStatus string  `json:"thermostat_status"`
}

// NetworkView is the radio state.
type NetworkView struct {
	Mode      string `json:"mode"`
	Status    string `json:"status"`
	WifiOn    bool   `json:"wifi_on"`
	APOn      bool   `json:"ap_on"`
	WifiSSID  string `json:"wifi_ssid"`
	APSSID    string `json:"ap_ssid"`
	Connected bool   `json:"connected"`
}

// MQTTView is the broker link state.
type MQTTView struct {
	Work      bool   `json:"work"`
	Server    string `json:"server"`
	Port      uint16 `json:"port"`
	Username  string `json:"username"`
	Connected bool   `json:"connected"`
}

// CloudView is the dashboard link state.
type CloudView struct {
	Work      bool         `json:"work"`
	AuthSet   bool         `json:"auth_set"`
	Connected bool         `json:"connected"`
	Links     []cloud.Link `json:"links"`
}

// snapshot builds the state. It runs on the loop.
func (s *Server) snapshot() StateResponse {
	sys := s.system
	sen, rel, nw, mq, cl := sys.Sensors(), sys.Relay(), sys.Network(), sys.MQTT(), sys.Cloud()

	probes := make([]SensorView, 0, sen.Count())
	for i, p := range sen.Sensors() {
		probes = append(probes, sensorView(i, p))
	}

	wifiSSID, _ := nw.Wifi()
	apSSID, _ := nw.AccessPoint()
	server, port := mq.Server()
	user, _ := mq.Access()

	return StateResponse{
		Device:  s.device,
		Version: s.version,
		System: SystemView{
			SleepFlag:    sys.SleepFlag(),
			SleepTime:    sys.SleepTime(),
			Requirements: sys.Requirements(),
			SavePending:  sys.SavePending(),
		},
		Sensors: SensorsView{
			ReadInterval:   sen.ReadInterval(),
			DuplicateNames: sen.DuplicateNames(),
			Probes:         probes,
		},
		Relay: RelayView{
			On:               rel.On(),
			Invert:           rel.Invert(),
			Mode:             rel.Mode().String(),
			SensorIndex:      rel.SensorIndex(),
			Target:           rel.Target(),
			Delta:            rel.Delta(),
			ThermoMode:       rel.ThermoMode().String(),
			Fallback:         rel.Fallback(),
			ThermostatStatus: rel.ThermostatStatus().String(),
		},
		Network: NetworkView{
			Mode:      nw.Mode().String(),
			Status:    nw.Status().String(),
			WifiOn:    nw.WifiOn(),
			APOn:      nw.APOn(),
			WifiSSID:  wifiSSID,
			APSSID:    apSSID,
			Connected: nw.Connected(),
		},
		MQTT: MQTTView{
			Work:      mq.Work(),
			Server:    server,
			Port:      port,
			Username:  user,
			Connected: mq.Connected(),
		},
		Cloud: CloudView{
			Work:      cl.Work(),
			AuthSet:   cl.Auth() != "",
			Connected: cl.Connected(),
			Links:     cl.Links(),
		},
	}
}

// handleState returns the full device state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, func() (any, error) {
		return s.snapshot(), nil
	})
}

// handleElementCodes lists every event code, the targets a cloud link can
// bind to.
func (s *Server) handleElementCodes(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, func() (any, error) {
		return map[string]any{"codes": s.system.ElementCodes()}, nil
	})
}

// handleListEvents returns recent events, oldest first. ?limit=n keeps the
// last n.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": s.events.recent(limit)})
}

// PushEventRequest is the body of POST /events.
type PushEventRequest struct {
	Code  string  `json:"code"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

// handlePushEvent raises an event from the UI, as if it had arrived over
// MQTT. Booleans are sent as 0 or 1.
func (s *Server) handlePushEvent(w http.ResponseWriter, r *http.Request) {
	var req PushEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Code == "" {
		writeBadRequest(w, "code is required")
		return
	}
	if req.Kind == "" {
		req.Kind = scalar.KindFloat.String()
	}
	kind, err := scalar.ParseKind(req.Kind)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	v := scalar.FromFloat64(kind, req.Value)

	s.respond(w, r, http.StatusOK, func() (any, error) {
		return map[string]any{"claimed": s.system.Push(req.Code, v)}, nil
	})
}
