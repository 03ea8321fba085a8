// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDBridge  string
	MQTTClientIDSim     string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string
	MQTTClientIDIMU     string
	MQTTClientIDHeading string

	// Raw sample topics (phone / producers -> bridge)
	TopicRawGyro        string
	TopicRawAccel       string
	TopicRawOrientation string
	TopicRawQuaternion  string
	TopicRawHeading     string

	// Bridge output topics
	TopicOrientation string
	TopicStatus      string
	TopicCommand     string

	// Engine
	EngineProfile       string  // platform string, e.g. "android", "ios"
	GyroWeight          float64 // 0 leaves the profile default in place
	YawCorrectionWeight float64
	AccelSmoothing      float64
	BiasLearningRate    float64
	RotationThreshold   float64
	AccelThreshold      float64
	DriftThreshold      float64
	ReferenceMaxAgeMS   int
	CalibrationDelayMS  int
	StatusIntervalMS    int

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Heading producer (serial NMEA compass/GPS)
	HeadingSerialPort string
	HeadingBaudRate   int

	// Onboard IMU producer
	IMUSPIDevice      string
	IMUCSPin          string
	IMUSampleInterval int // milliseconds

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds

	// Simulator
	SimSampleInterval int // milliseconds
}

// Package-level unexported variables for the config singleton. External
// code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config with every optional key pre-filled so a
// minimal file only needs MQTT_BROKER.
func defaults() *Config {
	return &Config{
		MQTTClientIDBridge:  "carbot-fusion-bridge",
		MQTTClientIDSim:     "carbot-phone-sim",
		MQTTClientIDConsole: "carbot-console",
		MQTTClientIDWeb:     "carbot-web",
		MQTTClientIDDisplay: "carbot-display",
		MQTTClientIDIMU:     "carbot-imu-producer",
		MQTTClientIDHeading: "carbot-heading-producer",

		TopicRawGyro:        "carbot/raw/gyro",
		TopicRawAccel:       "carbot/raw/accel",
		TopicRawOrientation: "carbot/raw/orientation",
		TopicRawQuaternion:  "carbot/raw/quaternion",
		TopicRawHeading:     "carbot/raw/heading",
		TopicOrientation:    "carbot/orientation",
		TopicStatus:         "carbot/status",
		TopicCommand:        "carbot/command",

		EngineProfile:    "generic",
		StatusIntervalMS: 2000,

		WebServerPort: 8080,
		WebStaticDir:  "web",

		HeadingBaudRate: 9600,

		IMUSPIDevice:      "/dev/spidev0.0",
		IMUCSPin:          "18",
		IMUSampleInterval: 20,

		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 200,

		SimSampleInterval: 20,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_SIM":
		c.MQTTClientIDSim = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_IMU":
		c.MQTTClientIDIMU = value
	case "MQTT_CLIENT_ID_HEADING":
		c.MQTTClientIDHeading = value

	// Topics
	case "TOPIC_RAW_GYRO":
		c.TopicRawGyro = value
	case "TOPIC_RAW_ACCEL":
		c.TopicRawAccel = value
	case "TOPIC_RAW_ORIENTATION":
		c.TopicRawOrientation = value
	case "TOPIC_RAW_QUATERNION":
		c.TopicRawQuaternion = value
	case "TOPIC_RAW_HEADING":
		c.TopicRawHeading = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value

	// Engine
	case "ENGINE_PROFILE":
		c.EngineProfile = value
	case "GYRO_WEIGHT":
		return setWeight(&c.GyroWeight, key, value)
	case "YAW_CORRECTION_WEIGHT":
		return setWeight(&c.YawCorrectionWeight, key, value)
	case "ACCEL_SMOOTHING":
		return setWeight(&c.AccelSmoothing, key, value)
	case "BIAS_LEARNING_RATE":
		return setWeight(&c.BiasLearningRate, key, value)
	case "ROTATION_THRESHOLD":
		return setFloat(&c.RotationThreshold, key, value)
	case "ACCEL_THRESHOLD":
		return setFloat(&c.AccelThreshold, key, value)
	case "DRIFT_THRESHOLD":
		return setFloat(&c.DriftThreshold, key, value)
	case "REFERENCE_MAX_AGE_MS":
		return setInt(&c.ReferenceMaxAgeMS, key, value)
	case "CALIBRATION_DELAY_MS":
		return setInt(&c.CalibrationDelayMS, key, value)
	case "STATUS_INTERVAL_MS":
		return setInt(&c.StatusIntervalMS, key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		return setInt(&c.WebServerPort, key, value)
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Heading producer
	case "HEADING_SERIAL_PORT":
		c.HeadingSerialPort = value
	case "HEADING_BAUD_RATE":
		return setInt(&c.HeadingBaudRate, key, value)

	// IMU producer
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_SAMPLE_INTERVAL":
		return setInt(&c.IMUSampleInterval, key, value)

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		return setInt(&c.DisplayUpdateInterval, key, value)

	// Simulator
	case "SIM_SAMPLE_INTERVAL":
		return setInt(&c.SimSampleInterval, key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// setWeight parses a float and enforces the [0,1] range shared by all
// the filter weights.
func setWeight(dst *float64, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0,1], got %v", key, v)
	}
	*dst = v
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.StatusIntervalMS <= 0 {
		return fmt.Errorf("STATUS_INTERVAL_MS must be positive")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be a valid port")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
