package service

import (
	"context"
	"fmt"

	"medibook/pkg/kafka"
	"medibook/pkg/logger"
	"medibook/pkg/model"
)

// Event types published on appointment transitions.
const (
	EventAppointmentConfirmed = "appointment.confirmed"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentCompleted = "appointment.completed"
)

// NotificationEvent is the payload delivered to the notification topic.
// A separate delivery service fans it out to the client's channels.
type NotificationEvent struct {
	AppointmentID string `json:"appointment_id"`
	ProviderID    string `json:"provider_id"`
	ClientID      string `json:"client_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// Notifier publishes appointment transition events. Delivery is best
// effort: failures are logged and never surface to the caller, so a broker
// outage cannot fail a booking flow.
type Notifier interface {
	Notify(ctx context.Context, eventType string, appt *model.Appointment)
}

type kafkaNotifier struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, source string, log *logger.Logger) Notifier {
	return &kafkaNotifier{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (n *kafkaNotifier) Notify(ctx context.Context, eventType string, appt *model.Appointment) {
	event := NotificationEvent{
		AppointmentID: appt.ID,
		ProviderID:    appt.ProviderID,
		ClientID:      appt.ClientID,
		Date:          appt.Date,
		Time:          appt.Time,
		Status:        appt.Status,
		Message:       notificationMessage(eventType, appt),
	}

	msg := kafka.NewMessage().
		WithKey(appt.ClientID).
		WithValue(event).
		WithEventType(eventType).
		WithSource(n.source).
		WithSchemaVersion("1").
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		n.log.Error("Failed to publish notification event",
			"event_type", eventType,
			"appointment_id", appt.ID,
			"error", err,
		)
	}
}

func notificationMessage(eventType string, appt *model.Appointment) string {
	switch eventType {
	case EventAppointmentConfirmed:
		return fmt.Sprintf("Your appointment on %s at %s has been confirmed.", appt.Date, appt.Time)
	case EventAppointmentCancelled:
		return fmt.Sprintf("Your appointment on %s at %s has been cancelled.", appt.Date, appt.Time)
	case EventAppointmentCompleted:
		return fmt.Sprintf("Your appointment on %s at %s has been completed.", appt.Date, appt.Time)
	}
	return fmt.Sprintf("Your appointment on %s at %s was updated.", appt.Date, appt.Time)
}

// noopNotifier is used when no broker is configured (tests, local runs).
type noopNotifier struct{}

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(context.Context, string, *model.Appointment) {}
