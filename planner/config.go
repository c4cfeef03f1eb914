package planner

// FieldConfig describes the square field and its discretization
type FieldConfig struct {
	Size     float64 `yaml:"size" json:"size"`         // side length in mm
	CellSize float64 `yaml:"cellSize" json:"cellSize"` // cell side length in mm
}

// RobotConfig describes the robot footprint
type RobotConfig struct {
	Radius       float64 `yaml:"radius" json:"radius"`
	SafetyMargin float64 `yaml:"safetyMargin" json:"safetyMargin"`
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config represents the full configuration file
type Config struct {
	Field  FieldConfig `yaml:"field" json:"field"`
	Robot  RobotConfig `yaml:"robot" json:"robot"`
	Layout Layout      `yaml:"layout" json:"layout"`
	MQTT   MQTTConfig  `yaml:"mqtt,omitempty" json:"mqtt,omitempty"`
}

// Default field geometry: a 3.6 m VEX field in 50 mm cells (72×72)
const (
	DefaultFieldSize     = 3600.0
	DefaultCellSize      = 50.0
	DefaultRobotRadius   = 200.0
	DefaultSafetyMargin  = 50.0
	DefaultPublishPrefix = "fieldplanner"
)

// DefaultConfig returns the built-in field, robot and layout settings
func DefaultConfig() *Config {
	return &Config{
		Field: FieldConfig{Size: DefaultFieldSize, CellSize: DefaultCellSize},
		Robot: RobotConfig{Radius: DefaultRobotRadius, SafetyMargin: DefaultSafetyMargin},
		Layout: Layout{
			EdgeMargin: DefaultCellSize,
		},
		MQTT: MQTTConfig{PublishPrefix: DefaultPublishPrefix},
	}
}

// SessionConfig converts the file configuration into session geometry
func (c *Config) SessionConfig() SessionConfig {
	return SessionConfig{
		FieldSize:    c.Field.Size,
		CellSize:     c.Field.CellSize,
		RobotRadius:  c.Robot.Radius,
		SafetyMargin: c.Robot.SafetyMargin,
		Layout:       c.Layout,
	}
}

// CollisionRadius is the robot radius plus the safety margin
func (c *Config) CollisionRadius() float64 {
	return c.Robot.Radius + c.Robot.SafetyMargin
}

// GetPublishPrefix returns the topic prefix or the default
func (c *Config) GetPublishPrefix() string {
	if c.MQTT.PublishPrefix != "" {
		return c.MQTT.PublishPrefix
	}
	return DefaultPublishPrefix
}
