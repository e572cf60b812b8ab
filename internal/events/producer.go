// Package events publishes domain events to Kafka. Production is
// fire-and-forget: the service layer never blocks on the broker.
package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	CompanyRegistered    EventType = "company_registered"
	CompanyStatusChanged EventType = "company_status_changed"
	LicenseBatchCreated  EventType = "license_batch_created"
	DeviceRegistered     EventType = "device_registered"
	AgentAssigned        EventType = "agent_assigned"
	AgentUnassigned      EventType = "agent_unassigned"
	IncidentReported     EventType = "incident_reported"
)

// Event is the envelope written to the topic. EntityID doubles as the
// partition key so events about one entity stay ordered.
type Event struct {
	Type     EventType   `json:"type"`
	EntityID string      `json:"entity_id"`
	Payload  interface{} `json:"payload,omitempty"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	topicConfigs := []kafka.TopicConfig{
		{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
	}
	if err := conn.CreateTopics(topicConfigs...); err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		events:    make(chan Event, 1000),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}

	go p.eventLoop()
	return p, nil
}

// Produce enqueues an event. A full queue drops the event with a
// warning rather than stalling a request.
func (p *Producer) Produce(eventType EventType, entityID string, payload interface{}) {
	select {
	case p.events <- Event{Type: eventType, EntityID: entityID, Payload: payload}:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("entity_id", entityID),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("entity_id", event.EntityID),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EntityID),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
		)
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}

// NopProducer satisfies the service layer's producer interface when
// Kafka is not configured (tests, local runs).
type NopProducer struct{}

func (NopProducer) Produce(EventType, string, interface{}) {}
