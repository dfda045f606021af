package main

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTMessage represents an outgoing MQTT message
type MQTTMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// MQTTSender wraps a channel for sending MQTT messages with helper methods
type MQTTSender struct {
	ch chan<- MQTTMessage
}

// NewMQTTSender creates a new MQTTSender wrapping the given channel
func NewMQTTSender(ch chan<- MQTTMessage) *MQTTSender {
	return &MQTTSender{ch: ch}
}

// Send sends a raw MQTTMessage
func (s *MQTTSender) Send(msg MQTTMessage) {
	s.ch <- msg
}

// deviceID turns a display name into an entity id fragment
func deviceID(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// PublishGear publishes the current gear to the entity's state topic.
// Gear changes are sparse, so the value is retained for late subscribers.
func (s *MQTTSender) PublishGear(deviceName string, gear int) {
	s.Send(MQTTMessage{
		Topic:   "homeassistant/sensor/" + deviceID(deviceName) + "/state",
		Payload: []byte(strconv.Itoa(gear)),
		QoS:     0,
		Retain:  true,
	})
}

// CreateGearEntity creates the Home Assistant gear sensor via MQTT discovery
func (s *MQTTSender) CreateGearEntity(deviceName string, topGear int) error {
	type haDeviceConfig struct {
		Identifiers  []string `json:"identifiers"`
		Name         string   `json:"name"`
		Manufacturer string   `json:"manufacturer,omitempty"`
		Model        string   `json:"model,omitempty"`
	}

	type haEntityConfig struct {
		Name        string         `json:"name,omitempty"`
		StateTopic  string         `json:"state_topic"`
		UniqueId    string         `json:"unique_id"`
		Icon        string         `json:"icon,omitempty"`
		StateClass  string         `json:"state_class,omitempty"`
		ExpireAfter uint           `json:"expire_after,omitempty"`
		Device      haDeviceConfig `json:"device"`
	}

	id := deviceID(deviceName)

	config := haEntityConfig{
		Name:       "Gear",
		StateTopic: "homeassistant/sensor/" + id + "/state",
		UniqueId:   id + "_gear",
		Icon:       "mdi:car-shift-pattern",
		StateClass: "measurement",
		Device: haDeviceConfig{
			Identifiers:  []string{id},
			Name:         deviceName,
			Manufacturer: "shiftctl",
			Model:        strconv.Itoa(topGear) + "-speed",
		},
	}

	payload, err := json.Marshal(config)
	if err != nil {
		return err
	}

	s.Send(MQTTMessage{
		Topic:   "homeassistant/sensor/" + id + "_gear/config",
		Payload: payload,
		QoS:     2,
		Retain:  true,
	})

	return nil
}

// mqttSenderWorker handles outgoing MQTT messages with queuing until a
// connected client is available
func mqttSenderWorker(
	ctx context.Context,
	outgoingChan <-chan MQTTMessage,
	clientChan <-chan mqtt.Client,
) {
	log.Println("MQTT sender worker started")

	var client mqtt.Client
	var messageQueue []MQTTMessage

	for {
		select {
		case newClient := <-clientChan:
			log.Println("MQTT sender worker received new client")
			client = newClient

			// Process any queued messages now that we have a client
			if client != nil && client.IsConnected() {
				queuedCount := len(messageQueue)
				for _, msg := range messageQueue {
					token := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
					token.Wait()
					if token.Error() != nil {
						log.Printf("Failed to publish queued message to %s: %v\n", msg.Topic, token.Error())
					}
				}
				messageQueue = nil // Clear the queue
				if queuedCount > 0 {
					log.Printf("MQTT sender worker processed %d queued messages\n", queuedCount)
				}
			}

		case msg := <-outgoingChan:
			if client != nil && client.IsConnected() {
				// We have a client, publish immediately
				token := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
				token.Wait()
				if token.Error() != nil {
					log.Printf("Failed to publish to %s: %v\n", msg.Topic, token.Error())
				}
			} else {
				// No client yet, queue the message
				messageQueue = append(messageQueue, msg)
				log.Printf("MQTT sender worker queued message (total queued: %d)\n", len(messageQueue))
			}

		case <-ctx.Done():
			log.Println("MQTT sender worker stopped")
			return
		}
	}
}
