package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/openuas/catchleader/internal/guidance"
	"github.com/openuas/catchleader/internal/metrics"
)

const publishTimeout = 2 * time.Second

// Publisher sends guidance commands to the broker with a per-vehicle routing
// key (command.<sysid>). It implements guidance.CommandSink: publishes are
// fire-and-forget, and a failed publish is counted and dropped so the
// guidance tick is never blocked on broker health.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
	started  time.Time
}

// NewPublisher connects and declares the command exchange.
func NewPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
		started:  time.Now(),
	}, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() {
	p.channel.Close()
	p.conn.Close()
}

// SendPositionTarget publishes one global-position setpoint.
func (p *Publisher) SendPositionTarget(t guidance.PositionTarget) {
	frame := FrameGlobalInt
	if t.RelativeAlt {
		frame = FrameGlobalRelativeAltInt
	}
	mask := MaskPositionOnly
	if t.HasVelocity {
		mask = MaskPositionVelocity
	}
	msg := PositionTargetMessage{
		Command:    "position_target",
		SysID:      t.SysID,
		CompID:     t.CompID,
		TimeBootMS: uint32(time.Since(p.started).Milliseconds()),
		Frame:      frame,
		TypeMask:   mask,
		LatE7:      DegreesE7(t.Lat),
		LonE7:      DegreesE7(t.Lon),
		Alt:        t.Alt,
	}
	if t.HasVelocity {
		msg.Vx = t.VX
		msg.Vy = t.VY
		msg.Vz = t.VZ
	}
	p.publish(t.SysID, msg)
}

// SendSpeedChange publishes one groundspeed request.
func (p *Publisher) SendSpeedChange(sysID, compID int, speed float64) {
	p.publish(sysID, SpeedChangeMessage{
		Command: "change_speed",
		SysID:   sysID,
		CompID:  compID,
		Speed:   speed,
	})
}

// SendModeChange publishes one custom-mode request.
func (p *Publisher) SendModeChange(sysID, compID int, customMode uint32) {
	p.publish(sysID, SetModeMessage{
		Command:    "set_mode",
		SysID:      sysID,
		CompID:     compID,
		CustomMode: customMode,
	})
}

func (p *Publisher) publish(sysID int, msg any) {
	body, err := json.Marshal(msg)
	if err != nil {
		metrics.PublishFailuresTotal.Inc()
		p.logger.Warn("encode command", zap.Error(err))
		return
	}
	routingKey := fmt.Sprintf("command.%d", sysID)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		metrics.PublishFailuresTotal.Inc()
		p.logger.Warn("publish command failed, dropping",
			zap.String("routing_key", routingKey), zap.Error(err))
	}
}
