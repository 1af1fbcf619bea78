package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/config"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	defaultKeepAlive         = 60 * time.Second

	// lwtQoS matches the QoS the doorbell has always used for its last will.
	lwtQoS = 1

	maxQoS        = 2
	tlsMinVersion = tls.VersionTLS12

	// Fallbacks when the reconnect section is left at zero.
	fallbackInitialDelay = time.Second
	fallbackMaxDelay     = 30 * time.Second
)

// buildClientOptions creates paho options from the doorbell config.
//
// ConnectRetry is left off so that the first Connect reports CONNACK
// refusals; ConnectWithRetry does the retrying. AutoReconnect covers
// connections lost after that.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	// The broker accepts anonymous clients when either credential is empty.
	if cfg.Auth.Username != "" && cfg.Auth.Password != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(maxDelay(cfg))
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	configureLWT(opts, cfg)
	return opts
}

// configureLWT asks the broker to post to <root>/lastLogMessage if the
// doorbell drops off the network without disconnecting.
func configureLWT(opts *pahomqtt.ClientOptions, cfg config.MQTTConfig) {
	opts.SetWill(Topics{Root: cfg.RootTopic}.LastLogMessage(), LastWillMessage(cfg.Broker.ClientID), lwtQoS, false)
}

// LastWillMessage is the payload the broker publishes when the client
// identified by clientID vanishes.
func LastWillMessage(clientID string) string {
	return clientID + " disconnected unexpectedly"
}

func initialDelay(cfg config.MQTTConfig) time.Duration {
	if cfg.Reconnect.InitialDelay <= 0 {
		return fallbackInitialDelay
	}
	return time.Duration(cfg.Reconnect.InitialDelay) * time.Second
}

func maxDelay(cfg config.MQTTConfig) time.Duration {
	d := time.Duration(cfg.Reconnect.MaxDelay) * time.Second
	if d <= 0 {
		d = fallbackMaxDelay
	}
	if first := initialDelay(cfg); d < first {
		return first
	}
	return d
}

// newBackOff doubles the delay between connect attempts without jitter, so
// the retry notice shown to the operator names the real wait.
func newBackOff(cfg config.MQTTConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialDelay(cfg)
	b.MaxInterval = maxDelay(cfg)
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// isAuthRefusal reports whether a CONNACK return code means the broker
// rejected the credentials.
func isAuthRefusal(returnCode byte) bool {
	return returnCode == packets.ErrRefusedBadUsernameOrPassword ||
		returnCode == packets.ErrRefusedNotAuthorised
}
