package planner

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher publishes route snapshots to <prefix>/route
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	last          *RouteSnapshot
	mu            sync.RWMutex
}

// NewPublisher creates a route publisher. If client is nil, publishing is
// disabled but the last snapshot is still recorded.
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true, // late subscribers get the current route
	}
}

// Topic returns the route topic
func (p *Publisher) Topic() string {
	return fmt.Sprintf("%s/%s", p.publishPrefix, TopicRoute)
}

// PublishRoute records snap and publishes it as JSON
func (p *Publisher) PublishRoute(snap RouteSnapshot) error {
	p.mu.Lock()
	s := snap
	p.last = &s
	p.mu.Unlock()

	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling route: %w", err)
	}

	topic := p.Topic()
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("[MQTT] published route: %s, %d cells", snap.Status, len(snap.Cells))
	return nil
}

// Listener adapts the publisher to Tracker.OnRouteChange
func (p *Publisher) Listener() RouteListener {
	return func(snap RouteSnapshot) {
		if err := p.PublishRoute(snap); err != nil {
			log.Printf("[MQTT] route not published: %v", err)
		}
	}
}

// LastRoute returns the most recent snapshot handed to PublishRoute
func (p *Publisher) LastRoute() (RouteSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return RouteSnapshot{}, false
	}
	return *p.last, true
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages are retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
