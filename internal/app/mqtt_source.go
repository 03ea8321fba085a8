package app

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/orientation_engine/internal/config"
	"github.com/relabs-tech/orientation_engine/internal/engine"
	"github.com/relabs-tech/orientation_engine/internal/sample"
)

// mqttSource feeds raw-sample topics into the engine. It is the
// engine's view of "the phone": whatever publishes on the raw topics
// (the phone controller page, the simulator, the onboard producers)
// becomes a sensor.
type mqttSource struct {
	client mqtt.Client
	cfg    *config.Config
}

// NewMQTTSource wraps an already-connected MQTT client as an
// engine.Source subscribing to the configured raw topics.
func NewMQTTSource(client mqtt.Client, cfg *config.Config) engine.Source {
	return &mqttSource{client: client, cfg: cfg}
}

func (s *mqttSource) Attach(sink engine.Sink) (func(), error) {
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{s.cfg.TopicRawGyro, func(_ mqtt.Client, msg mqtt.Message) {
			var v sample.AngularRate
			if err := json.Unmarshal(msg.Payload(), &v); err != nil {
				log.Printf("bridge: gyro unmarshal error: %v", err)
				return
			}
			sink.HandleAngularRate(v)
		}},
		{s.cfg.TopicRawAccel, func(_ mqtt.Client, msg mqtt.Message) {
			var v sample.LinearAccel
			if err := json.Unmarshal(msg.Payload(), &v); err != nil {
				log.Printf("bridge: accel unmarshal error: %v", err)
				return
			}
			sink.HandleLinearAccel(v)
		}},
		{s.cfg.TopicRawOrientation, func(_ mqtt.Client, msg mqtt.Message) {
			var v sample.OrientationEvent
			if err := json.Unmarshal(msg.Payload(), &v); err != nil {
				log.Printf("bridge: orientation unmarshal error: %v", err)
				return
			}
			sink.HandleOrientation(v)
		}},
		{s.cfg.TopicRawQuaternion, func(_ mqtt.Client, msg mqtt.Message) {
			var v sample.AbsoluteQuaternion
			if err := json.Unmarshal(msg.Payload(), &v); err != nil {
				log.Printf("bridge: quaternion unmarshal error: %v", err)
				return
			}
			sink.HandleQuaternion(v)
		}},
		{s.cfg.TopicRawHeading, func(_ mqtt.Client, msg mqtt.Message) {
			var v sample.MagneticHeading
			if err := json.Unmarshal(msg.Payload(), &v); err != nil {
				log.Printf("bridge: heading unmarshal error: %v", err)
				return
			}
			sink.HandleHeading(v)
		}},
	}

	var attached []string
	for _, sub := range subs {
		token := s.client.Subscribe(sub.topic, 0, sub.handler)
		token.Wait()
		if err := token.Error(); err != nil {
			for _, topic := range attached {
				s.client.Unsubscribe(topic)
			}
			// A broker refusing a raw topic is the transport's version
			// of a denied sensor permission.
			return nil, fmt.Errorf("subscribe %s: %v: %w", sub.topic, err, engine.ErrPermissionDenied)
		}
		attached = append(attached, sub.topic)
	}

	detach := func() {
		token := s.client.Unsubscribe(attached...)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("bridge: unsubscribe error: %v", err)
		}
	}
	return detach, nil
}
