// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/orientation_engine/internal/config"
	"github.com/relabs-tech/orientation_engine/internal/engine"
)

// command is the verb schema the original carbot firmware consumed on
// its command topic. A bare string payload ("calibrate") is accepted
// too.
type command struct {
	Action string `json:"action"`
}

// RunFusionBridge subscribes to the raw phone sensor topics, runs the
// orientation fusion engine over them, and republishes every update as
// a fused snapshot, plus a periodic status heartbeat.
func RunFusionBridge() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDBridge)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("bridge: connected to MQTT broker at %s", cfg.MQTTBroker)

	profile := profileFromConfig(cfg)
	log.Printf("bridge: engine profile %q, strategy %s", profile.Name, profile.Strategy)

	eng := engine.New(profile)
	eng.AddSource(NewMQTTSource(client, cfg))
	eng.SetUpdateHandler(func(snap engine.Snapshot) {
		payload, err := json.Marshal(snap)
		if err != nil {
			log.Printf("bridge: snapshot marshal error: %v", err)
			return
		}
		client.Publish(cfg.TopicOrientation, 0, true, payload)
	})
	eng.SetErrorHandler(func(err error) {
		log.Printf("bridge: engine error: %v", err)
	})

	if r := eng.Start(); !r.Success {
		return fmt.Errorf("engine start: %s", r.Message)
	}
	defer eng.Stop()

	// Command topic: manual re-zero and lifecycle verbs from the UI.
	token := client.Subscribe(cfg.TopicCommand, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handleCommand(eng, msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("bridge: subscribed to command topic %s", cfg.TopicCommand)

	// Status heartbeat.
	ticker := time.NewTicker(time.Duration(cfg.StatusIntervalMS) * time.Millisecond)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			payload, err := json.Marshal(eng.Status())
			if err != nil {
				log.Printf("bridge: status marshal error: %v", err)
				continue
			}
			client.Publish(cfg.TopicStatus, 0, true, payload)
		}
	}()

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("bridge: shutting down")
	return nil
}

func handleCommand(eng *engine.Engine, payload []byte) {
	verb := strings.TrimSpace(string(payload))
	var cmd command
	if err := json.Unmarshal(payload, &cmd); err == nil && cmd.Action != "" {
		verb = cmd.Action
	}

	switch strings.ToLower(verb) {
	case "calibrate":
		eng.Calibrate()
		log.Println("bridge: calibrated")
	case "stop":
		eng.Stop()
		log.Println("bridge: engine stopped")
	case "start":
		r := eng.Start()
		log.Printf("bridge: engine start: success=%v %s", r.Success, r.Message)
	default:
		log.Printf("bridge: unknown command %q", verb)
	}
}

// profileFromConfig selects the platform profile and applies any
// non-zero tunable overrides from the config file.
func profileFromConfig(cfg *config.Config) engine.Profile {
	p := engine.ProfileFor(cfg.EngineProfile)
	if cfg.GyroWeight != 0 {
		p.GyroWeight = cfg.GyroWeight
	}
	if cfg.YawCorrectionWeight != 0 {
		p.YawCorrectionWeight = cfg.YawCorrectionWeight
	}
	if cfg.AccelSmoothing != 0 {
		p.AccelSmoothing = cfg.AccelSmoothing
	}
	if cfg.BiasLearningRate != 0 {
		p.BiasLearningRate = cfg.BiasLearningRate
	}
	if cfg.RotationThreshold != 0 {
		p.RotationThreshold = cfg.RotationThreshold
	}
	if cfg.AccelThreshold != 0 {
		p.AccelThreshold = cfg.AccelThreshold
	}
	if cfg.DriftThreshold != 0 {
		p.DriftThreshold = cfg.DriftThreshold
	}
	if cfg.ReferenceMaxAgeMS != 0 {
		p.ReferenceMaxAge = time.Duration(cfg.ReferenceMaxAgeMS) * time.Millisecond
	}
	if cfg.CalibrationDelayMS != 0 {
		p.CalibrationDelay = time.Duration(cfg.CalibrationDelayMS) * time.Millisecond
	}
	return p
}
