package transport

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/openuas/catchleader/internal/guidance"
	"github.com/openuas/catchleader/internal/metrics"
)

// TelemetrySink receives decoded telemetry. The guidance engine satisfies it.
type TelemetrySink interface {
	SubmitPosition(guidance.PositionUpdate)
	SubmitHeartbeat(guidance.HeartbeatUpdate)
	SubmitParam(guidance.ParamUpdate)
}

// Subscriber consumes telemetry envelopes from the broker and feeds the
// guidance engine. Telemetry is disposable: messages are auto-acked and
// decode failures are counted and dropped, never redelivered.
type Subscriber struct {
	url      string
	exchange string
	queue    string
	binding  string
	sink     TelemetrySink
	logger   *zap.Logger
}

func NewSubscriber(url, exchange, queue, binding string, sink TelemetrySink, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		url:      url,
		exchange: exchange,
		queue:    queue,
		binding:  binding,
		sink:     sink,
		logger:   logger,
	}
}

// Run consumes until the context is cancelled or the connection dies.
func (s *Subscriber) Run(ctx context.Context) error {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer channel.Close()

	if err := channel.ExchangeDeclare(s.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", s.exchange, err)
	}
	if _, err := channel.QueueDeclare(s.queue, false, true, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", s.queue, err)
	}
	if err := channel.QueueBind(s.queue, s.binding, s.exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", s.queue, s.exchange, err)
	}
	if err := channel.Qos(500, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := channel.Consume(s.queue, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", s.queue, err)
	}

	s.logger.Info("telemetry subscriber started",
		zap.String("queue", s.queue),
		zap.String("exchange", s.exchange),
		zap.String("binding", s.binding))

	// Closing the connection terminates the delivery range below.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for event := range msgs {
		s.dispatch(event.Body)
	}

	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("telemetry channel closed unexpectedly")
}

func (s *Subscriber) dispatch(body []byte) {
	env, err := DecodeEnvelope(body)
	if err != nil {
		metrics.TelemetryMessagesTotal.WithLabelValues("invalid").Inc()
		s.logger.Debug("dropping telemetry message", zap.Error(err))
		return
	}
	metrics.TelemetryMessagesTotal.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case TypePosition:
		s.sink.SubmitPosition(guidance.PositionUpdate{
			SysID:    env.SysID,
			CompID:   env.CompID,
			LatE7:    env.Lat,
			LonE7:    env.Lon,
			RelAltMM: env.RelAlt,
			AltMM:    env.Alt,
			VxCMS:    env.Vx,
			VyCMS:    env.Vy,
			VzCMS:    env.Vz,
			HdgCdeg:  env.Hdg,
		})
	case TypeHeartbeat:
		s.sink.SubmitHeartbeat(guidance.HeartbeatUpdate{
			SysID:  env.SysID,
			CompID: env.CompID,
			Mode:   env.Mode,
			Armed:  env.Armed,
		})
	case TypeParam:
		s.sink.SubmitParam(guidance.ParamUpdate{
			SysID:  env.SysID,
			CompID: env.CompID,
			Name:   env.Name,
			Value:  env.Value,
		})
	}
}
