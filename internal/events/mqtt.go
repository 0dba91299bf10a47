package events

import (
	"context"
	"encoding/json"
	"strings"
)

// mqttClient common/mqtt.Client 的发布子集（便于测试替换）
type mqttClient interface {
	Publish(topic string, retained bool, payload []byte) error
}

// MQTTPublisher 发布到 <prefix>/<patient>/<type>
type MQTTPublisher struct {
	client mqttClient
	prefix string
}

func NewMQTTPublisher(client mqttClient, prefix string) *MQTTPublisher {
	if prefix == "" {
		prefix = "empa"
	}
	return &MQTTPublisher{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

// Topic 事件对应的主题
func (p *MQTTPublisher) Topic(e Event) string {
	patient := e.PatientID
	if patient == "" {
		patient = "_"
	}
	return p.prefix + "/" + patient + "/" + e.Type
}

func (p *MQTTPublisher) Publish(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.client.Publish(p.Topic(e), false, payload)
}
