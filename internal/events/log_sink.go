package events

import (
	"context"

	"github.com/sirupsen/logrus"
)

type LogSink struct {
	log *logrus.Entry
}

func NewLogSink(log *logrus.Entry) *LogSink {
	return &LogSink{log: log.WithField("component", "events")}
}

func (s *LogSink) Publish(_ context.Context, e Event) error {
	s.log.WithFields(logrus.Fields{
		"event":       e.Type,
		"orderId":     e.OrderID,
		"userId":      e.UserID,
		"totalAmount": e.TotalAmount.StringFixed(2),
		"items":       len(e.Items),
	}).Info("Order event")
	return nil
}
