package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"getweather/internal/report"
	"getweather/internal/weather"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
	discovery   bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
	Discovery   bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return newPublisher(client, cfg.TopicPrefix, cfg.Discovery), nil
}

func newPublisher(client mqtt.Client, topicPrefix string, discovery bool) *Publisher {
	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix,
		enabled:     true,
		discovery:   discovery,
	}
}

// PublishBriefing publishes today's values on individual topics and the
// whole briefing as retained JSON on {prefix}/briefing.
func (p *Publisher) PublishBriefing(b *report.Briefing) error {
	if !p.enabled {
		return nil
	}

	if p.discovery {
		p.PublishHomeAssistantDiscovery(b.Units)
	}

	if len(b.Days) > 0 {
		today := b.Days[0]
		topics := map[string]string{
			"high":       formatValue(today.High),
			"low":        formatValue(today.Low),
			"feels_like": formatValue(today.FeelsLike),
			"umbrella":   today.Summary,
		}
		if today.Umbrella.Known {
			topics["pop"] = strconv.Itoa(today.Umbrella.Percent)
		}

		for name, value := range topics {
			topic := fmt.Sprintf("%s/today/%s", p.topicPrefix, name)
			token := p.client.Publish(topic, 0, false, value)
			token.Wait()
			if token.Error() != nil {
				log.Printf("Failed to publish to %s: %v", topic, token.Error())
			}
		}
	}

	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal briefing: %w", err)
	}

	briefingTopic := fmt.Sprintf("%s/briefing", p.topicPrefix)
	token := p.client.Publish(briefingTopic, 0, true, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish briefing: %w", token.Error())
	}

	return nil
}

// PublishHomeAssistantDiscovery announces today's sensors. Temperature
// sensors only get a device class when units maps to a known unit, since
// Home Assistant requires one with the other.
func (p *Publisher) PublishHomeAssistantDiscovery(units weather.Units) {
	if !p.enabled {
		return
	}

	tempUnit, tempClass := temperatureUnit(units), "temperature"
	if tempUnit == "" {
		tempClass = ""
	}

	sensors := []struct {
		Name        string
		ID          string
		Unit        string
		DeviceClass string
	}{
		{"High Temperature", "high", tempUnit, tempClass},
		{"Low Temperature", "low", tempUnit, tempClass},
		{"Feels Like", "feels_like", tempUnit, tempClass},
		{"Precipitation Probability", "pop", "%", ""},
		{"Pack Umbrella", "umbrella", "", ""},
	}

	for _, sensor := range sensors {
		discoveryTopic := fmt.Sprintf("homeassistant/sensor/getweather/%s/config", sensor.ID)

		config := map[string]interface{}{
			"name":        fmt.Sprintf("Weather Today %s", sensor.Name),
			"unique_id":   fmt.Sprintf("getweather_today_%s", sensor.ID),
			"state_topic": fmt.Sprintf("%s/today/%s", p.topicPrefix, sensor.ID),
			"device": map[string]interface{}{
				"identifiers": []string{"getweather"},
				"name":        "Daily Weather Briefing",
			},
		}

		if sensor.Unit != "" {
			config["unit_of_measurement"] = sensor.Unit
		}
		if sensor.DeviceClass != "" {
			config["device_class"] = sensor.DeviceClass
		}

		payload, _ := json.Marshal(config)
		token := p.client.Publish(discoveryTopic, 0, true, payload)
		token.Wait()
	}
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}

func temperatureUnit(units weather.Units) string {
	if units == weather.Standard {
		return "K"
	}
	return units.Suffix()
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
