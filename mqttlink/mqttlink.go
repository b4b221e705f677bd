// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mqttlink feeds the HUD from an MQTT broker.
//
// Every topic lives under the configured prefix:
//
//	<prefix>/icon/<hash>          raw 1-bit bitmap of the icon <hash>
//	<prefix>/nav/icon             hash of the icon to show, empty to hide
//	<prefix>/nav/speed            integer speed, negative to clear
//	<prefix>/nav/road             next road
//	<prefix>/nav/road_desc        maneuver description
//	<prefix>/nav/eta              estimated time of arrival
//	<prefix>/nav/ete              estimated time en route
//	<prefix>/nav/total_distance   remaining distance
//	<prefix>/nav/distance         distance to the next turn
//	<prefix>/nav/clear            clears the navigation data
//	<prefix>/speed/clear          clears the speed
//
// The link publishes "online" to <prefix>/status on connect and the broker
// publishes "offline" when it is lost.
package mqttlink

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	logger "github.com/d2r2/go-logger"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/GermanBionicSystems/navhud/config"
)

var lg = logger.NewPackageLogger("mqttlink", logger.InfoLevel)

const (
	connectTimeout    = 10 * time.Second
	subscribeTimeout  = 5 * time.Second
	disconnectQuiesce = 1000 // milliseconds
	keepAlive         = 60 * time.Second
)

// connectWait bounds how long Connect blocks for the first connection.
var connectWait = connectTimeout

var (
	// ErrConnectionFailed is returned when the initial connection fails.
	ErrConnectionFailed = errors.New("mqttlink: connection failed")
	// ErrUnknownTopic is returned for messages on topics the link does not
	// handle.
	ErrUnknownTopic = errors.New("mqttlink: unknown topic")
)

// Sink receives the decoded messages. *hud.HUD implements it.
type Sink interface {
	Deliver(hash string, bitmap []byte) error
	SetIconHash(hash string)
	SetSpeed(v int)
	SetNextRoad(v string)
	SetNextRoadDesc(v string)
	SetEta(v string)
	SetEte(v string)
	SetTotalDistance(v string)
	SetDistanceToNextTurn(v string)
	ClearNavigation()
	ClearSpeed()
}

// Link is a subscription to the HUD topics.
type Link struct {
	cfg    config.MQTTConfig
	sink   Sink
	prefix string
	client pahomqtt.Client
}

// Connect connects to the broker and subscribes to the HUD topics.
// Subscriptions are restored after every reconnection.
//
// When the broker does not answer within the connect timeout, the client
// keeps retrying in the background: Connect returns the Link together with
// an ErrConnectionFailed error and the caller must still Close it.
func Connect(cfg config.MQTTConfig, sink Sink) (*Link, error) {
	l := newLink(cfg, sink)
	opts := buildClientOptions(cfg)
	opts.SetWill(l.prefix+"/status", "offline", byte(cfg.QoS), true)
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		l.subscribe(c)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		lg.Errorf("connection lost: %s", err)
	})

	l.client = pahomqtt.NewClient(opts)
	token := l.client.Connect()
	if !token.WaitTimeout(connectWait) {
		return l, fmt.Errorf("%w: timeout after %v, retrying", ErrConnectionFailed, connectWait)
	}
	if err := token.Error(); err != nil {
		l.client.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return l, nil
}

func newLink(cfg config.MQTTConfig, sink Sink) *Link {
	return &Link{cfg: cfg, sink: sink, prefix: strings.TrimSuffix(cfg.TopicPrefix, "/")}
}

func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)
	return opts
}

func (l *Link) subscribe(c pahomqtt.Client) {
	topic := l.prefix + "/#"
	token := c.Subscribe(topic, byte(l.cfg.QoS), func(_ pahomqtt.Client, msg pahomqtt.Message) {
		if err := l.route(msg.Topic(), msg.Payload()); err != nil {
			lg.Errorf("%s: %s", msg.Topic(), err)
		}
	})
	if !token.WaitTimeout(subscribeTimeout) {
		lg.Errorf("subscribing to %s: timeout after %v", topic, subscribeTimeout)
		return
	}
	if err := token.Error(); err != nil {
		lg.Errorf("subscribing to %s: %s", topic, err)
		return
	}
	c.Publish(l.prefix+"/status", byte(l.cfg.QoS), true, "online")
	lg.Infof("subscribed to %s", topic)
}

// route decodes one message and forwards it to the sink.
func (l *Link) route(topic string, payload []byte) error {
	rel, ok := strings.CutPrefix(topic, l.prefix+"/")
	if !ok {
		return ErrUnknownTopic
	}
	if hash, ok := strings.CutPrefix(rel, "icon/"); ok {
		lg.Debugf("icon %s: %d bytes", hash, len(payload))
		return l.sink.Deliver(hash, payload)
	}
	v := strings.TrimSpace(string(payload))
	switch rel {
	case "status":
		// Our own retained status.
	case "nav/icon":
		l.sink.SetIconHash(v)
	case "nav/speed":
		if v == "" {
			l.sink.ClearSpeed()
			return nil
		}
		s, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("mqttlink: invalid speed %q", v)
		}
		l.sink.SetSpeed(s)
	case "nav/road":
		l.sink.SetNextRoad(v)
	case "nav/road_desc":
		l.sink.SetNextRoadDesc(v)
	case "nav/eta":
		l.sink.SetEta(v)
	case "nav/ete":
		l.sink.SetEte(v)
	case "nav/total_distance":
		l.sink.SetTotalDistance(v)
	case "nav/distance":
		l.sink.SetDistanceToNextTurn(v)
	case "nav/clear":
		l.sink.ClearNavigation()
	case "speed/clear":
		l.sink.ClearSpeed()
	default:
		return ErrUnknownTopic
	}
	return nil
}

// Close publishes the offline status and disconnects.
func (l *Link) Close() error {
	if l.client == nil {
		return nil
	}
	if l.client.IsConnected() {
		t := l.client.Publish(l.prefix+"/status", byte(l.cfg.QoS), true, "offline")
		t.WaitTimeout(subscribeTimeout)
	}
	l.client.Disconnect(disconnectQuiesce)
	return nil
}
