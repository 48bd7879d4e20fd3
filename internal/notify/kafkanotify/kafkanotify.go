package kafkanotify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// EventTypeReservationPaid tags messages published when a reservation is paid.
const EventTypeReservationPaid = "reservation.paid"

const (
	defaultTopic = "bookings.reservations"
	batchTimeout = 50 * time.Millisecond
	writeTimeout = 2 * time.Second
	maxAttempts  = 3
)

// ErrInvalidConfig reports missing brokers or writer.
var ErrInvalidConfig = errors.New("invalid kafka notifier config")

type messageWriter interface {
	WriteMessages(ctx context.Context, messages ...kafka.Message) error
	Close() error
}

// Config selects the brokers and topic for paid-reservation events.
type Config struct {
	Brokers []string
	Topic   string
}

// ReservationPaidEvent is the JSON body published for each paid reservation.
type ReservationPaidEvent struct {
	Type             string       `json:"type"`
	ReservationID    string       `json:"reservationId"`
	UserID           string       `json:"userId"`
	PaymentSessionID string       `json:"paymentSessionId,omitempty"`
	PaidAt           *time.Time   `json:"paidAt,omitempty"`
	Entries          []EventEntry `json:"entries"`
	Total            string       `json:"total"`
}

// EventEntry is one reserved slot inside ReservationPaidEvent.
type EventEntry struct {
	PrestationID string `json:"prestationId"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Date         string `json:"date"`
}

// Publisher implements booking.Notifier on a Kafka topic.
type Publisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// New builds a Publisher writing to the configured brokers.
func New(cfg Config) (*Publisher, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, broker := range cfg.Brokers {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, ErrInvalidConfig
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: writeTimeout,
		MaxAttempts:  maxAttempts,
	}
	return newPublisher(writer, cfg.Topic, time.Now)
}

func newPublisher(writer messageWriter, topic string, now func() time.Time) (*Publisher, error) {
	if writer == nil || now == nil {
		return nil, ErrInvalidConfig
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = defaultTopic
	}
	return &Publisher{writer: writer, topic: topic, now: now}, nil
}

// NotifyReservationPaid publishes one event keyed by reservation id.
func (publisher *Publisher) NotifyReservationPaid(ctx context.Context, reservation booking.Reservation) error {
	payload, err := json.Marshal(newReservationPaidEvent(reservation))
	if err != nil {
		return err
	}
	return publisher.writer.WriteMessages(ctx, kafka.Message{
		Topic: publisher.topic,
		Key:   []byte(reservation.ID.String()),
		Value: payload,
		Time:  publisher.now(),
	})
}

// Close flushes and closes the writer.
func (publisher *Publisher) Close() error {
	return publisher.writer.Close()
}

func newReservationPaidEvent(reservation booking.Reservation) ReservationPaidEvent {
	total := decimal.Zero
	entries := make([]EventEntry, 0, len(reservation.Entries))
	for _, entry := range reservation.Entries {
		total = total.Add(entry.Price)
		entries = append(entries, EventEntry{
			PrestationID: entry.PrestationID.String(),
			Name:         entry.Name,
			Price:        entry.Price.StringFixed(2),
			Date:         entry.Date.UTC().Format("2006-01-02"),
		})
	}
	return ReservationPaidEvent{
		Type:             EventTypeReservationPaid,
		ReservationID:    reservation.ID.String(),
		UserID:           reservation.UserID.String(),
		PaymentSessionID: reservation.PaymentSessionID,
		PaidAt:           reservation.PaidAt,
		Entries:          entries,
		Total:            total.StringFixed(2),
	}
}
