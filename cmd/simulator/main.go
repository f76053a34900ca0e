package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type locationMessage struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Timestamp int64   `json:"timestamp"`
	TripID    string  `json:"trip_id"`
}

// A fake bus: drifts from a home position and varies its speed so that
// the monitor occasionally sees all three violation tiers.
type bus struct {
	id      string
	lat     float64
	lon     float64
	heading float64
	tripID  string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleet-simulator")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	buses := []*bus{
		{id: "B1001", lat: 40.0, lon: -74.0, tripID: "trip-morning-1"},
		{id: "B1002", lat: 40.01, lon: -74.02, tripID: "trip-morning-2"},
		{id: "B1003", lat: 39.99, lon: -73.98, tripID: "trip-morning-3"},
	}

	log.Printf("connected to %s, publishing every %ds for %d buses", broker, intervalSec, len(buses))

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		b := buses[rand.Intn(len(buses))]
		b.step()

		msg := locationMessage{
			VehicleID: b.id,
			Latitude:  b.lat,
			Longitude: b.lon,
			Speed:     b.speed(),
			Heading:   b.heading,
			Timestamp: time.Now().Unix(),
			TripID:    b.tripID,
		}

		payload, _ := json.Marshal(msg)
		topic := fmt.Sprintf("/fleet/vehicle/%s/location", b.id)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published to %s: %s", topic, payload)
	}
}

func (b *bus) step() {
	b.heading += (rand.Float64() - 0.5) * 30
	b.lat += (rand.Float64() - 0.5) * 0.001
	b.lon += (rand.Float64() - 0.5) * 0.001
}

func (b *bus) speed() float64 {
	// mostly legal, with occasional bursts past the default 50 km/h limit
	base := 30 + rand.Float64()*20
	if rand.Float64() < 0.15 {
		base += rand.Float64() * 40
	}
	return base
}
