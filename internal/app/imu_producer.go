// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/orientation_engine/internal/config"
	"github.com/relabs-tech/orientation_engine/internal/sample"
)

const gravity = 9.80665

// MPU9250 sensitivity at the default ranges: ±2g accelerometer
// (16384 LSB/g) and ±250°/s gyroscope (131 LSB/(°/s)).
const (
	accelCountsPerG   = 16384.0
	gyroCountsPerDegS = 131.0
)

// RunIMUProducer reads the MPU9250 over SPI and publishes angular rate
// and linear acceleration samples onto the raw sensor topics, in the
// same shape the phone app would send.
func RunIMUProducer() error {
	cfg := config.Get()

	// Initialize periph host once.
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		return fmt.Errorf("IMU CS pin %q not found", cfg.IMUCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.IMUSPIDevice, cs)
	if err != nil {
		return fmt.Errorf("IMU SPI transport: %w", err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return fmt.Errorf("IMU new device: %w", err)
	}

	if err := imu.Init(); err != nil {
		return fmt.Errorf("IMU init: %w", err)
	}

	// Self-test and calibration at startup. Comment out if too slow
	// for dev.
	if _, err := imu.SelfTest(); err != nil {
		return fmt.Errorf("IMU self-test: %w", err)
	}
	if err := imu.Calibrate(); err != nil {
		return fmt.Errorf("IMU calibrate: %w", err)
	}
	log.Printf("IMU initialized on %s (CS %s)", cfg.IMUSPIDevice, cfg.IMUCSPin)

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDIMU)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Println("connected to MQTT, starting publish loop")

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		gx, err := imu.GetRotationX()
		if err != nil {
			log.Printf("IMU gyro X read error: %v", err)
			continue
		}
		gy, err := imu.GetRotationY()
		if err != nil {
			log.Printf("IMU gyro Y read error: %v", err)
			continue
		}
		gz, err := imu.GetRotationZ()
		if err != nil {
			log.Printf("IMU gyro Z read error: %v", err)
			continue
		}

		ax, err := imu.GetAccelerationX()
		if err != nil {
			log.Printf("IMU accel X read error: %v", err)
			continue
		}
		ay, err := imu.GetAccelerationY()
		if err != nil {
			log.Printf("IMU accel Y read error: %v", err)
			continue
		}
		az, err := imu.GetAccelerationZ()
		if err != nil {
			log.Printf("IMU accel Z read error: %v", err)
			continue
		}

		// Device frame to phone convention: alpha is rotation about
		// the screen normal (body z), beta about x, gamma about y.
		rate := sample.AngularRate{
			Alpha: sample.F(float64(gz) / gyroCountsPerDegS),
			Beta:  sample.F(float64(gx) / gyroCountsPerDegS),
			Gamma: sample.F(float64(gy) / gyroCountsPerDegS),
			T:     t,
		}
		accel := sample.LinearAccel{
			X: sample.F(float64(ax) / accelCountsPerG * gravity),
			Y: sample.F(float64(ay) / accelCountsPerG * gravity),
			Z: sample.F(float64(az) / accelCountsPerG * gravity),
			T: t,
		}

		if payload, err := json.Marshal(rate); err != nil {
			log.Printf("gyro marshal error: %v", err)
		} else if token := client.Publish(cfg.TopicRawGyro, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (gyro): %v", token.Error())
		}

		if payload, err := json.Marshal(accel); err != nil {
			log.Printf("accel marshal error: %v", err)
		} else if token := client.Publish(cfg.TopicRawAccel, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (accel): %v", token.Error())
		}
	}
	return nil
}
