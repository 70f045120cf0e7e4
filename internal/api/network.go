package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nerrad567/temptick-core/internal/network"
)

const (
	defaultConnectTimeout = 10 * time.Second
	maxConnectTimeout     = 60 * time.Second
)

// UpdateNetworkRequest edits the radio settings. A missing password keeps
// the stored one.
type UpdateNetworkRequest struct {
	Mode     *string `json:"mode"`
	WifiSSID *string `json:"wifi_ssid"`
	WifiPass *string `json:"wifi_pass"`
	APSSID   *string `json:"ap_ssid"`
	APPass   *string `json:"ap_pass"`
}

// ConnectRequest joins a network. Save defaults to true.
type ConnectRequest struct {
	SSID    string `json:"ssid"`
	Pass    string `json:"pass"`
	Timeout int    `json:"timeout"` // seconds
	Save    *bool  `json:"save"`
}

// handleUpdateNetwork edits the network mode and credentials.
func (s *Server) handleUpdateNetwork(w http.ResponseWriter, r *http.Request) {
	var req UpdateNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	var mode network.Mode
	if req.Mode != nil {
		var err error
		if mode, err = network.ParseMode(*req.Mode); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
	}

	s.respond(w, r, http.StatusOK, func() (any, error) {
		nw := s.system.Network()
		if req.Mode != nil {
			nw.SetMode(mode)
		}
		if req.WifiSSID != nil || req.WifiPass != nil {
			ssid, pass := nw.Wifi()
			nw.SetWifi(valueOr(req.WifiSSID, ssid), valueOr(req.WifiPass, pass))
		}
		if req.APSSID != nil || req.APPass != nil {
			ssid, pass := nw.AccessPoint()
			nw.SetAccessPoint(valueOr(req.APSSID, ssid), valueOr(req.APPass, pass))
		}
		s.system.RequestSave()
		return s.snapshot().Network, nil
	})
}

// handleNetworkConnect starts a manual connect and answers 202 at once.
// The connect blocks the loop and restarts this server, so its outcome is
// read back from GET /state.
func (s *Server) handleNetworkConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.SSID == "" {
		writeBadRequest(w, "ssid is required")
		return
	}
	timeout := defaultConnectTimeout
	if req.Timeout > 0 {
		timeout = min(time.Duration(req.Timeout)*time.Second, maxConnectTimeout)
	}
	save := req.Save == nil || *req.Save

	err := s.post(func() {
		s.system.Network().Connect(context.Background(), req.SSID, req.Pass, timeout, save)
	})
	if err != nil {
		writeUnavailable(w, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "connecting"})
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
