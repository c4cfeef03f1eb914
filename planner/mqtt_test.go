package planner

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMQTT_Disabled(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	client, err := InitMQTT(DefaultConfig(), nil)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestInitMQTT_NoTracker(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	cfg := DefaultConfig()
	cfg.MQTT.Broker = "tcp://localhost:1883"

	_, err := InitMQTT(cfg, nil)
	assert.Error(t, err)
}

func TestClientID(t *testing.T) {
	t.Setenv("MQTT_CLIENT_ID", "")
	cfg := DefaultConfig()

	id := clientID(cfg)
	assert.True(t, strings.HasPrefix(id, "fieldplanner-"))
	assert.Len(t, id, len("fieldplanner-")+8)
	assert.NotEqual(t, id, clientID(cfg), "generated ids are unique")

	cfg.MQTT.ClientID = "from-config"
	assert.Equal(t, "from-config", clientID(cfg))

	t.Setenv("MQTT_CLIENT_ID", "from-env")
	assert.Equal(t, "from-env", clientID(cfg))
}

func TestPublishPrefix(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")
	cfg := DefaultConfig()
	assert.Equal(t, DefaultPublishPrefix, publishPrefix(cfg))

	cfg.MQTT.PublishPrefix = "bot"
	assert.Equal(t, "bot", publishPrefix(cfg))

	t.Setenv("MQTT_PUBLISH_PREFIX", "envbot")
	assert.Equal(t, "envbot", publishPrefix(cfg))
}

func TestMQTTClient_IsConnected(t *testing.T) {
	client := &MQTTClient{}
	assert.False(t, client.IsConnected())

	client.setConnected(true)
	assert.True(t, client.IsConnected())

	client.setConnected(false)
	assert.False(t, client.IsConnected())
}

// connectedMQTT wires a mock broker client to a tracker over a 10x10 grid
func connectedMQTT(t *testing.T) (*MQTTClient, *MockClient, *Tracker) {
	t.Helper()
	t.Setenv("MQTT_PUBLISH_PREFIX", "")

	s, err := NewSession(SessionConfig{FieldSize: 1000, CellSize: 100, RobotRadius: 100})
	require.NoError(t, err)
	tracker := NewTracker(s)

	mock := NewMockClient()
	client := newMQTTClientWithMock(mock, DefaultConfig(), tracker)
	mock.SetOnConnect(client.onConnect)
	require.NoError(t, mock.Connect().Error())
	return client, mock, tracker
}

func TestMQTTClient_SubscribesOnConnect(t *testing.T) {
	client, mock, _ := connectedMQTT(t)

	assert.True(t, client.IsConnected())
	assert.True(t, mock.Subscribed("fieldplanner/obstacle"))
	assert.True(t, mock.Subscribed("fieldplanner/command"))
	assert.False(t, mock.Subscribed("fieldplanner/route"))
}

func TestMQTTClient_SubscribeError(t *testing.T) {
	s := smallSession(t)
	mock := NewMockClient()
	mock.SetSubscribeError(errors.New("denied"))
	client := newMQTTClientWithMock(mock, DefaultConfig(), NewTracker(s))
	mock.SetOnConnect(client.onConnect)

	require.NoError(t, mock.Connect().Error())
	assert.False(t, mock.Subscribed("fieldplanner/obstacle"))
}

func TestMQTTClient_ObstacleMessage(t *testing.T) {
	_, mock, tracker := connectedMQTT(t)
	tracker.SetStart(Cell{X: 0, Y: 5})
	tracker.SetGoal(Cell{X: 9, Y: 5})

	mock.SimulateMessage("fieldplanner/obstacle", []byte("50 -50 0"))

	snap := tracker.Snapshot()
	assert.Equal(t, 1, snap.Obstacles)
	assert.NotContains(t, snap.Cells, Cell{X: 5, Y: 5})
	assert.Equal(t, "found", snap.Status)
}

func TestMQTTClient_MalformedObstacleIgnored(t *testing.T) {
	_, mock, tracker := connectedMQTT(t)
	tracker.SetStart(Cell{X: 0, Y: 5})
	tracker.SetGoal(Cell{X: 9, Y: 5})
	before := tracker.Snapshot()

	for _, payload := range []string{"", "50", "x y", "1 2 3 4", "1 2 -1", "0 0 1e9"} {
		mock.SimulateMessage("fieldplanner/obstacle", []byte(payload))
	}

	after := tracker.Snapshot()
	assert.Equal(t, before.Obstacles, after.Obstacles)
	assert.Equal(t, before.Cells, after.Cells)
}

func TestMQTTClient_CommandMessage(t *testing.T) {
	_, mock, tracker := connectedMQTT(t)

	mock.SimulateMessage("fieldplanner/command", []byte(`{"op":"setStart","gx":1,"gy":1}`))
	mock.SimulateMessage("fieldplanner/command", []byte(`{"op":"setGoal","gx":1,"gy":4}`))
	mock.SimulateMessage("fieldplanner/command", []byte(`{"op":"bogus"}`))
	mock.SimulateMessage("fieldplanner/command", []byte(`not json`))
	mock.SimulateMessage("fieldplanner/command", []byte(`{"op":"addDisk","x":0,"y":0,"radius":1e9}`))

	snap := tracker.Snapshot()
	require.NotNil(t, snap.Start)
	require.NotNil(t, snap.Goal)
	assert.Equal(t, Cell{X: 1, Y: 4}, *snap.Goal)
	assert.Len(t, snap.Cells, 4)
	assert.Equal(t, 0, snap.Obstacles)
}

func TestMQTTClient_Disconnect(t *testing.T) {
	client, mock, _ := connectedMQTT(t)
	client.Disconnect()
	assert.False(t, client.IsConnected())
	assert.False(t, mock.IsConnected())
}
