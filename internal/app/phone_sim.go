// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/orientation_engine/internal/config"
	"github.com/relabs-tech/orientation_engine/internal/engine"
	"github.com/relabs-tech/orientation_engine/internal/sample"
)

// mqttPublisher forwards synthetic phone samples onto the raw sensor
// topics, standing in for a real handset.
type mqttPublisher struct {
	client mqtt.Client
	cfg    *config.Config
}

func (p *mqttPublisher) publish(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("sim: marshal error on %s: %v", topic, err)
		return
	}
	p.client.Publish(topic, 0, false, payload)
}

func (p *mqttPublisher) HandleAngularRate(r sample.AngularRate) {
	p.publish(p.cfg.TopicRawGyro, r)
}

func (p *mqttPublisher) HandleLinearAccel(a sample.LinearAccel) {
	p.publish(p.cfg.TopicRawAccel, a)
}

func (p *mqttPublisher) HandleOrientation(o sample.OrientationEvent) {
	p.publish(p.cfg.TopicRawOrientation, o)
}

func (p *mqttPublisher) HandleQuaternion(q sample.AbsoluteQuaternion) {
	p.publish(p.cfg.TopicRawQuaternion, q)
}

func (p *mqttPublisher) HandleHeading(h sample.MagneticHeading) {
	p.publish(p.cfg.TopicRawHeading, h)
}

// RunPhoneSim drives the synthetic motion source and publishes its
// samples to the raw topics, so the bridge can be exercised without a
// phone or IMU hardware.
func RunPhoneSim() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSim)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("sim: connected to MQTT broker at %s", cfg.MQTTBroker)

	interval := time.Duration(cfg.SimSampleInterval) * time.Millisecond
	src := engine.NewMockSource(interval)
	detach, err := src.Attach(&mqttPublisher{client: client, cfg: cfg})
	if err != nil {
		return err
	}
	log.Printf("sim: publishing synthetic samples every %v", interval)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("sim: shutting down")
	detach()
	client.Disconnect(250)
	return nil
}
