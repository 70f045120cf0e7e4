package mqtt

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/temptick-core/internal/infrastructure/config"
	"github.com/nerrad567/temptick-core/internal/mqttlink"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultSubscribeTimeout  = 5 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
	defaultKeepAlive         = 30 * time.Second
	tlsMinVersion            = tls.VersionTLS12
)

// brokerURL builds tcp://host:port or ssl://host:port.
func brokerURL(creds mqttlink.Credentials, useTLS bool) string {
	scheme := "tcp"
	if useTLS {
		scheme = "ssl"
	}
	port := creds.Port
	if port == 0 {
		port = mqttlink.DefaultPort
	}
	return scheme + "://" + net.JoinHostPort(creds.Server, strconv.Itoa(int(port)))
}

// buildClientOptions creates paho options for one connection attempt.
//
// This configures:
//   - Broker URL from the device's server/port settings
//   - Client ID and credentials
//   - No auto-reconnect or connect-retry (the manager retries)
//   - Keepalive, connect timeout and optional TLS
//   - Last will on the status topic when enabled
func buildClientOptions(cfg config.MQTTConfig, creds mqttlink.Credentials, timeout time.Duration) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL(creds, cfg.TLS))
	opts.SetClientID(cfg.ClientID)

	if creds.Username != "" {
		opts.SetUsername(creds.Username)
		opts.SetPassword(creds.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(timeout)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetOrderMatters(false)

	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	if cfg.Status.Enabled {
		opts.SetWill(cfg.Status.Topic, statusPayload(cfg.ClientID, "offline", "unexpected_disconnect"), 1, true)
	}
	return opts
}

// statusPayload creates the JSON body of a status message. reason may be
// empty.
func statusPayload(clientID, status, reason string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	if reason == "" {
		return fmt.Sprintf(`{"status":%q,"client_id":%q,"timestamp":%q}`, status, clientID, ts)
	}
	return fmt.Sprintf(`{"status":%q,"client_id":%q,"reason":%q,"timestamp":%q}`, status, clientID, reason, ts)
}
