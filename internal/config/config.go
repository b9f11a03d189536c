// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/relabs-tech/tap_controller/internal/direction"
	"github.com/relabs-tech/tap_controller/internal/engine"
	"github.com/relabs-tech/tap_controller/internal/orientation"
	"github.com/relabs-tech/tap_controller/internal/tap"
)

// Sensor source kinds accepted by SENSOR_SOURCE.
const (
	SourceMock    = "mock"
	SourceMPU9250 = "mpu9250"
	SourceSerial  = "serial"
	SourceMQTT    = "mqtt"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDSamples  string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicSamples        string
	TopicDirection      string
	TopicCalibration    string
	TopicCalibrationCmd string

	// Sensor source
	SensorSource   string // mock, mpu9250, serial, mqtt
	SampleInterval int    // milliseconds

	// IMU Hardware
	IMUSPIDevice  string
	IMUCSPin      string
	IMUGyroWeight float64 // complementary filter weight for the gyro estimate

	// Serial
	SerialPort     string
	SerialBaudRate int

	// Tap detection (play)
	TapThreshold         float64
	TapLowPass           float64
	TapCooldownMS        int
	TapReferenceInterval int // milliseconds, 0 disables frame-rate compensation

	// Tap detection (calibration)
	CalTapThreshold  float64
	CalTapLowPass    float64
	CalTapCooldownMS int
	CalSettleMS      int

	// Classification
	TiltAxis          string
	ZoneSpan          float64
	BoundTolerance    float64
	DefaultRightBound float64
	DefaultLeftBound  float64

	// Persistence
	StorePath string

	// Web Server
	WebServerPort     int
	LastDirectionTTLS int // seconds

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a config usable without any file: mock sensor, local
// broker, in-game tuning.
func Default() *Config {
	play := tap.DefaultConfig()
	cal := tap.CalibrationConfig()
	bounds := direction.DefaultBounds()

	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "tap-producer",
		MQTTClientIDSamples:  "tap-samples",
		MQTTClientIDConsole:  "tap-console",
		MQTTClientIDWeb:      "tap-web",
		MQTTClientIDDisplay:  "tap-display",

		TopicSamples:        "tap/samples",
		TopicDirection:      "tap/direction",
		TopicCalibration:    "tap/calibration",
		TopicCalibrationCmd: "tap/calibration/cmd",

		SensorSource:   SourceMock,
		SampleInterval: 20,

		IMUSPIDevice:  "/dev/spidev0.0",
		IMUCSPin:      "8",
		IMUGyroWeight: 0.98,

		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 115200,

		TapThreshold:  play.Threshold,
		TapLowPass:    play.LowPassFactor,
		TapCooldownMS: int(play.Cooldown / time.Millisecond),

		CalTapThreshold:  cal.Threshold,
		CalTapLowPass:    cal.LowPassFactor,
		CalTapCooldownMS: int(cal.Cooldown / time.Millisecond),
		CalSettleMS:      800,

		TiltAxis:          "x",
		ZoneSpan:          direction.DefaultClassifier().ZoneSpan,
		DefaultRightBound: bounds.Right,
		DefaultLeftBound:  bounds.Left,

		StorePath: "~/.tap_controller/calibration.db",

		WebServerPort:     8080,
		LastDirectionTTLS: 5,

		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 200,
	}
}

// Load reads a KEY=VALUE configuration file on top of Default().
// Lines starting with # are comments.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()

	// Keys come back lowercased; sort for deterministic error reporting.
	keys := v.AllKeys()
	sort.Strings(keys)
	for _, k := range keys {
		if err := cfg.setValue(strings.ToUpper(k), strings.TrimSpace(v.GetString(k))); err != nil {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_SAMPLES":
		c.MQTTClientIDSamples = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_DIRECTION":
		c.TopicDirection = value
	case "TOPIC_CALIBRATION":
		c.TopicCalibration = value
	case "TOPIC_CALIBRATION_CMD":
		c.TopicCalibrationCmd = value

	// Sensor source
	case "SENSOR_SOURCE":
		c.SensorSource = strings.ToLower(value)
	case "SAMPLE_INTERVAL":
		c.SampleInterval, err = atoi(key, value)

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_GYRO_WEIGHT":
		c.IMUGyroWeight, err = atof(key, value)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = atoi(key, value)

	// Tap detection
	case "TAP_THRESHOLD":
		c.TapThreshold, err = atof(key, value)
	case "TAP_LOW_PASS":
		c.TapLowPass, err = atof(key, value)
	case "TAP_COOLDOWN_MS":
		c.TapCooldownMS, err = atoi(key, value)
	case "TAP_REFERENCE_INTERVAL_MS":
		c.TapReferenceInterval, err = atoi(key, value)
	case "CAL_TAP_THRESHOLD":
		c.CalTapThreshold, err = atof(key, value)
	case "CAL_TAP_LOW_PASS":
		c.CalTapLowPass, err = atof(key, value)
	case "CAL_TAP_COOLDOWN_MS":
		c.CalTapCooldownMS, err = atoi(key, value)
	case "CAL_SETTLE_MS":
		c.CalSettleMS, err = atoi(key, value)

	// Classification
	case "TILT_AXIS":
		c.TiltAxis = value
	case "ZONE_SPAN":
		c.ZoneSpan, err = atof(key, value)
	case "BOUND_TOLERANCE":
		c.BoundTolerance, err = atof(key, value)
	case "DEFAULT_RIGHT_BOUND":
		c.DefaultRightBound, err = atof(key, value)
	case "DEFAULT_LEFT_BOUND":
		c.DefaultLeftBound, err = atof(key, value)

	// Persistence
	case "STORE_PATH":
		c.StorePath = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = atoi(key, value)
	case "LAST_DIRECTION_TTL_S":
		c.LastDirectionTTLS, err = atoi(key, value)

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, perr)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = atoi(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func atoi(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func atof(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

// validate checks required fields and that the tuning is usable.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be > 0")
	}
	switch c.SensorSource {
	case SourceMock, SourceMQTT:
	case SourceMPU9250:
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required for SENSOR_SOURCE=mpu9250")
		}
	case SourceSerial:
		if c.SerialPort == "" || c.SerialBaudRate == 0 {
			return fmt.Errorf("SERIAL_PORT and SERIAL_BAUD_RATE are required for SENSOR_SOURCE=serial")
		}
	default:
		return fmt.Errorf("SENSOR_SOURCE must be one of mock, mpu9250, serial, mqtt; got %q", c.SensorSource)
	}
	if c.IMUGyroWeight < 0 || c.IMUGyroWeight > 1 {
		return fmt.Errorf("IMU_GYRO_WEIGHT must be in [0,1], got %v", c.IMUGyroWeight)
	}

	path, err := homedir.Expand(c.StorePath)
	if err != nil {
		return fmt.Errorf("STORE_PATH %q: %w", c.StorePath, err)
	}
	c.StorePath = path

	if _, err := c.Engine(); err != nil {
		return err
	}
	return nil
}

// Engine converts the tuning keys into an engine.Config.
func (c *Config) Engine() (engine.Config, error) {
	axis, err := orientation.ParseAxis(c.TiltAxis)
	if err != nil {
		return engine.Config{}, fmt.Errorf("TILT_AXIS: %w", err)
	}

	ec := engine.Config{
		Tap: tap.Config{
			Threshold:         c.TapThreshold,
			LowPassFactor:     c.TapLowPass,
			Cooldown:          ms(c.TapCooldownMS),
			ReferenceInterval: ms(c.TapReferenceInterval),
		},
		CalibrationTap: tap.Config{
			Threshold:         c.CalTapThreshold,
			LowPassFactor:     c.CalTapLowPass,
			Cooldown:          ms(c.CalTapCooldownMS),
			ReferenceInterval: ms(c.TapReferenceInterval),
		},
		Axis: axis,
		Classifier: direction.Classifier{
			ZoneSpan:  c.ZoneSpan,
			Tolerance: c.BoundTolerance,
		},
		DefaultBounds: direction.Bounds{Right: c.DefaultRightBound, Left: c.DefaultLeftBound},
		Settle:        ms(c.CalSettleMS),
	}
	if err := ec.Validate(); err != nil {
		return engine.Config{}, err
	}
	return ec, nil
}

// Interval returns SAMPLE_INTERVAL as a duration.
func (c *Config) Interval() time.Duration {
	return ms(c.SampleInterval)
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
