package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/orientation_engine/internal/config"
	"github.com/relabs-tech/orientation_engine/internal/engine"
	"github.com/relabs-tech/orientation_engine/internal/sample"
)

// RunConsole prints fused snapshots, engine status, and selected raw
// sensor feeds to stdout as they arrive over MQTT.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to fused orientation
	fusedToken := client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var snap engine.Snapshot
		if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
			log.Printf("console: snapshot unmarshal error: %v", err)
			return
		}

		rel := snap.Orientation.Relative
		abs := snap.Orientation.Absolute
		fmt.Printf(
			"[FUSE]  YAW=%7.1f  PITCH=%7.1f  ROLL=%7.1f   (abs %7.1f/%7.1f/%7.1f)  cal=%v\n",
			rel.Alpha, rel.Beta, rel.Gamma,
			abs.Alpha, abs.Beta, abs.Gamma,
			snap.Calibrated,
		)
	})
	fusedToken.Wait()
	if fusedToken.Error() != nil {
		return fusedToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicOrientation)

	// Subscribe to engine status
	statusToken := client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st engine.Status
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("console: status unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[STAT]  active=%v calibrated=%v strategy=%s profile=%s gyro=%v accel=%v orient=%v mag=%v\n",
			st.Active, st.Calibrated, st.Strategy, st.Profile,
			st.HasGyro, st.HasAccel, st.HasOrientation, st.HasMag,
		)
	})
	statusToken.Wait()
	if statusToken.Error() != nil {
		return statusToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicStatus)

	// Subscribe to raw gyro
	gyroToken := client.Subscribe(cfg.TopicRawGyro, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r sample.AngularRate
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: gyro unmarshal error: %v", err)
			return
		}
		fmt.Printf(
			"[GYRO]  a=%7.2f b=%7.2f g=%7.2f\n",
			deref(r.Alpha), deref(r.Beta), deref(r.Gamma),
		)
	})
	gyroToken.Wait()
	if gyroToken.Error() != nil {
		return gyroToken.Error()
	}

	// Subscribe to magnetic heading
	headingToken := client.Subscribe(cfg.TopicRawHeading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var h sample.MagneticHeading
		if err := json.Unmarshal(msg.Payload(), &h); err != nil {
			log.Printf("console: heading unmarshal error: %v", err)
			return
		}
		fmt.Printf("[HEAD]  heading=%7.1f\n", deref(h.Degrees))
	})
	headingToken.Wait()
	if headingToken.Error() != nil {
		return headingToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicRawHeading)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
