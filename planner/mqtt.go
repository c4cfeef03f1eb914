package planner

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Topic suffixes under the publish prefix
const (
	TopicObstacle = "obstacle"
	TopicCommand  = "command"
	TopicRoute    = "route"
)

// MQTTClient manages the broker connection and feeds incoming obstacle and
// edit commands into a Tracker
type MQTTClient struct {
	client      mqtt.Client
	config      *Config
	tracker     *Tracker
	prefix      string
	isConnected bool
	mu          sync.RWMutex
}

// InitMQTT creates a client for the configured broker and starts connecting
// in the background. If neither MQTT_BROKER nor the config names a broker,
// MQTT is disabled and InitMQTT returns nil, nil.
func InitMQTT(config *Config, tracker *Tracker) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}

	if broker == "" {
		log.Println("[MQTT] disabled: MQTT_BROKER not set")
		return nil, nil
	}

	if config == nil || tracker == nil {
		return nil, fmt.Errorf("MQTT enabled but no planning session provided")
	}

	client := &MQTTClient{
		config:  config,
		tracker: tracker,
		prefix:  publishPrefix(config),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID(config))

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false)
	// edits must reach the session in arrival order
	opts.SetOrderMatters(true)

	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()

	return client, nil
}

// clientID resolves the MQTT client id from env, config, or a random default
func clientID(config *Config) string {
	if id := os.Getenv("MQTT_CLIENT_ID"); id != "" {
		return id
	}
	if config != nil && config.MQTT.ClientID != "" {
		return config.MQTT.ClientID
	}
	return "fieldplanner-" + uuid.NewString()[:8]
}

// publishPrefix resolves the topic prefix from env or config
func publishPrefix(config *Config) string {
	if prefix := os.Getenv("MQTT_PUBLISH_PREFIX"); prefix != "" {
		return prefix
	}
	if config != nil {
		return config.GetPublishPrefix()
	}
	return DefaultPublishPrefix
}

// connectWithRetry attempts to connect to the broker with exponential backoff
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("[MQTT] connecting to broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("[MQTT] connected")
				c.setConnected(true)
				return
			}
			log.Printf("[MQTT] connection failed: %v", token.Error())
		} else {
			log.Println("[MQTT] connection timeout")
		}

		log.Printf("[MQTT] retrying in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// Topic returns the full topic for a suffix under this client's prefix
func (c *MQTTClient) Topic(suffix string) string {
	return c.prefix + "/" + suffix
}

// onConnect subscribes to the command topics
func (c *MQTTClient) onConnect(client mqtt.Client) {
	c.setConnected(true)

	subs := map[string]mqtt.MessageHandler{
		c.Topic(TopicObstacle): c.handleObstacle,
		c.Topic(TopicCommand):  c.handleCommand,
	}
	for topic, handler := range subs {
		token := client.Subscribe(topic, 1, handler)
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Printf("[MQTT] error subscribing to %s: %v", topic, token.Error())
		} else {
			log.Printf("[MQTT] subscribed to %s", topic)
		}
	}
}

// onConnectionLost is called when the connection drops; auto-reconnect retries
func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[MQTT] connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("[MQTT] reconnecting...")
}

// handleObstacle applies a text "x y [radius]" obstacle command
func (c *MQTTClient) handleObstacle(client mqtt.Client, msg mqtt.Message) {
	cmd, err := ParseObstacleCommand(string(msg.Payload()), c.tracker.CollisionRadius())
	if err == nil {
		err = cmd.CheckFits(c.tracker.Grid())
	}
	if err != nil {
		log.Printf("[MQTT] rejected obstacle on %s: %v", msg.Topic(), err)
		return
	}
	snap := c.tracker.ApplyObstacle(cmd)
	log.Printf("[MQTT] obstacle at (%.0f, %.0f) r=%.0f, route %s (%d cells)",
		cmd.X, cmd.Y, cmd.Radius, snap.Status, len(snap.Cells))
}

// handleCommand applies a JSON edit command
func (c *MQTTClient) handleCommand(client mqtt.Client, msg mqtt.Message) {
	cmd, err := ParseEditCommand(msg.Payload())
	if err == nil {
		err = cmd.CheckFits(c.tracker.Grid())
	}
	if err != nil {
		log.Printf("[MQTT] rejected command on %s: %v", msg.Topic(), err)
		return
	}
	snap := c.tracker.ApplyEdit(cmd)
	log.Printf("[MQTT] %s applied, route %s (%d cells)", cmd.Op, snap.Status, len(snap.Cells))
}

// IsConnected returns true if the client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the connection
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("[MQTT] disconnecting...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetClient returns the underlying client for publishing
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// Prefix returns the topic prefix
func (c *MQTTClient) Prefix() string {
	return c.prefix
}

// newMQTTClientWithMock wraps a provided mqtt.Client; used by tests
func newMQTTClientWithMock(client mqtt.Client, config *Config, tracker *Tracker) *MQTTClient {
	return &MQTTClient{
		client:  client,
		config:  config,
		tracker: tracker,
		prefix:  publishPrefix(config),
	}
}
