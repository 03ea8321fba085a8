package app

import (
	"bufio"
	"encoding/json"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/orientation_engine/internal/config"
	"github.com/relabs-tech/orientation_engine/internal/sample"
)

// Course-over-ground is only a usable heading when the receiver is
// actually moving; below this speed the course is noise.
const minCourseSpeedKnots = 1.0

// RunHeadingProducer opens the serial port, parses NMEA sentences, and
// publishes magnetic heading samples onto the raw heading topic. True
// and magnetic heading sentences (HDT/HDM) are preferred; RMC course
// over ground is used as a fallback while moving.
func RunHeadingProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDHeading)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("heading producer connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.HeadingSerialPort,
		BaudRate:              uint(cfg.HeadingBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("heading serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	publish := func(deg float64) {
		h := sample.MagneticHeading{
			Degrees: sample.F(deg),
			T:       time.Now(),
		}
		payload, err := json.Marshal(h)
		if err != nil {
			log.Printf("heading JSON marshal error: %v", err)
			return
		}
		token := client.Publish(cfg.TopicRawHeading, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("heading publish error: %v", token.Error())
		}
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("heading read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// NMEA sentences usually start with '$'
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy receiver or partial sentences
			continue
		}

		switch sentence.DataType() {
		case nmea.TypeHDT:
			m := sentence.(nmea.HDT)
			publish(m.Heading)

		case nmea.TypeHDM:
			m := sentence.(nmea.HDM)
			publish(m.Heading)

		case nmea.TypeRMC:
			m := sentence.(nmea.RMC)
			// Course over ground is only meaningful with a valid fix
			// and real movement.
			if string(m.Validity) != "A" || m.Speed < minCourseSpeedKnots {
				continue
			}
			publish(m.Course)

		default:
			// ignore other sentence types (GGA, GSA, etc.)
		}
	}
}
