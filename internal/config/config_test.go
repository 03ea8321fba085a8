package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carbot_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Fatalf("broker=%q", cfg.MQTTBroker)
	}
	// Optional keys fall back to defaults.
	if cfg.TopicRawGyro != "carbot/raw/gyro" {
		t.Fatalf("topic=%q", cfg.TopicRawGyro)
	}
	if cfg.WebServerPort != 8080 {
		t.Fatalf("port=%d", cfg.WebServerPort)
	}
	if cfg.EngineProfile != "generic" {
		t.Fatalf("profile=%q", cfg.EngineProfile)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, strings.Join([]string{
		"# comment line",
		"MQTT_BROKER=tcp://broker.emqx.io:1883",
		"ENGINE_PROFILE=ios",
		"GYRO_WEIGHT=0.97",
		"YAW_CORRECTION_WEIGHT=0.18",
		"REFERENCE_MAX_AGE_MS=500",
		"TOPIC_ORIENTATION=carbot/orientation/fused",
		"DISPLAY_I2C_ADDR=0x3D",
		"",
	}, "\n")))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EngineProfile != "ios" {
		t.Fatalf("profile=%q", cfg.EngineProfile)
	}
	if cfg.GyroWeight != 0.97 || cfg.YawCorrectionWeight != 0.18 {
		t.Fatalf("weights: %v %v", cfg.GyroWeight, cfg.YawCorrectionWeight)
	}
	if cfg.ReferenceMaxAgeMS != 500 {
		t.Fatalf("max age=%d", cfg.ReferenceMaxAgeMS)
	}
	if cfg.TopicOrientation != "carbot/orientation/fused" {
		t.Fatalf("topic=%q", cfg.TopicOrientation)
	}
	if cfg.DisplayI2CAddr != 0x3D {
		t.Fatalf("addr=0x%X", cfg.DisplayI2CAddr)
	}
}

func TestLoadRejectsBrokerlessFile(t *testing.T) {
	if _, err := Load(writeConfig(t, "WEB_SERVER_PORT=9000\n")); err == nil {
		t.Fatalf("expected error for missing MQTT_BROKER")
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "MQTT_BROKER=tcp://x:1883\nNO_SUCH_KEY=1\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Fatalf("err=%v", err)
	}
}

func TestLoadRejectsOutOfRangeWeight(t *testing.T) {
	_, err := Load(writeConfig(t, "MQTT_BROKER=tcp://x:1883\nGYRO_WEIGHT=1.5\n"))
	if err == nil || !strings.Contains(err.Error(), "must be in [0,1]") {
		t.Fatalf("err=%v", err)
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	if _, err := Load(writeConfig(t, "MQTT_BROKER tcp://x\n")); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}
