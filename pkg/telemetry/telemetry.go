// Package telemetry is the optional external publisher: it encodes
// opportunity and order lifecycle events as protobuf and ships them to
// JetStream subjects, entirely outside the execution manager's critical
// path. It is fed through pkg/eventbus — Subscribe hooks it to an
// execution.Manager's opportunity/order topics, and PublishOpportunity/
// PublishOrder are never called from outside this package. Grounded on
// internal/pubsub/publisher.go and internal/jetstream/publisher.go's
// nats.Conn/JetStreamContext publisher shape, and
// pkg/protobuf/sequex.Event as the wire envelope.
package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/brightpool/arbiq/internal/order"
	"github.com/brightpool/arbiq/pkg/eventbus"
	"github.com/brightpool/arbiq/pkg/log"
	"github.com/brightpool/arbiq/pkg/message"
	"github.com/brightpool/arbiq/pkg/protobuf/sequex"
)

// Publisher ships sequex.Event envelopes to JetStream subjects.
type Publisher struct {
	nats               *nats.Conn
	js                 nats.JetStreamContext
	opportunitySubject string
	orderSubject       string
	log                log.Logger
}

// NewPublisher dials nats and ensures the JetStream context, mirroring
// internal/pubsub.NewPublisher's constructor shape.
func NewPublisher(uris []string, opportunitySubject, orderSubject string, logger log.Logger) (*Publisher, error) {
	if len(uris) == 0 {
		return nil, fmt.Errorf("telemetry: at least one NATS URI is required")
	}
	if logger == nil {
		logger = log.Nop()
	}
	conn, err := nats.Connect(strings.Join(uris, ","), nats.Name("arbiq"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("telemetry: jetstream: %w", err)
	}
	return &Publisher{
		nats:               conn,
		js:                 js,
		opportunitySubject: opportunitySubject,
		orderSubject:       orderSubject,
		log:                logger.With(log.String("subsystem", "telemetry")),
	}, nil
}

// Close closes the underlying connection without draining it first.
func (p *Publisher) Close() {
	if p.nats != nil {
		p.nats.Close()
	}
}

// Subscribe hooks this publisher to bus's opportunity/order topics: every
// message the execution manager publishes there is shipped to NATS. The
// returned unsubscribe function is safe to call at most once, mirroring
// eventbus.Bus.Subscribe's own contract.
func (p *Publisher) Subscribe(bus eventbus.Bus) (func(), error) {
	unsubOpp, err := bus.Subscribe(eventbus.TopicOpportunity, func(msg message.Message) {
		acc, ok := msg.Data.(order.AcceptedOpportunity)
		if !ok {
			p.log.Error("opportunity message carried unexpected payload type")
			return
		}
		if err := p.PublishOpportunity(acc); err != nil {
			p.log.Error("publish opportunity", log.Err(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: subscribe opportunity topic: %w", err)
	}

	unsubOrder, err := bus.Subscribe(eventbus.TopicOrder, func(msg message.Message) {
		o, ok := msg.Data.(order.Order)
		if !ok {
			p.log.Error("order message carried unexpected payload type")
			return
		}
		if err := p.PublishOrder(o); err != nil {
			p.log.Error("publish order", log.Err(err))
		}
	})
	if err != nil {
		unsubOpp()
		return nil, fmt.Errorf("telemetry: subscribe order topic: %w", err)
	}

	return func() {
		unsubOpp()
		unsubOrder()
	}, nil
}

func (p *Publisher) publish(id string, typ sequex.EventType, subject string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telemetry: marshal payload: %w", err)
	}
	ev := &sequex.Event{
		Id:        id,
		Type:      typ,
		Source:    sequex.EventSource_SEQUEX,
		CreatedAt: timestamppb.New(time.Now()),
		Payload:   body,
	}
	wire, err := proto.Marshal(ev)
	if err != nil {
		return fmt.Errorf("telemetry: marshal event: %w", err)
	}
	_, err = p.js.Publish(subject, wire)
	return err
}

// opportunityPayload is the JSON shape carried in sequex.Event.Payload for
// opportunity lifecycle events.
type opportunityPayload struct {
	OpportunityID uint64    `json:"opportunity_id"`
	Pair          string    `json:"pair"`
	BuyVenue      string    `json:"buy_venue"`
	SellVenue     string    `json:"sell_venue"`
	State         string    `json:"state"`
	ProfitPct     string    `json:"profit_pct"`
	Timestamp     time.Time `json:"timestamp"`
}

// PublishOpportunity reports an accepted opportunity's current state.
func (p *Publisher) PublishOpportunity(acc order.AcceptedOpportunity) error {
	opp := acc.Opportunity
	return p.publish(fmt.Sprintf("opp-%d", acc.ID), sequex.EventType_EXECUTION_UPDATE, p.opportunitySubject, opportunityPayload{
		OpportunityID: acc.ID,
		Pair:          opp.Pair.String(),
		BuyVenue:      opp.BuyVenue.String(),
		SellVenue:     opp.SellVenue.String(),
		State:         acc.State.String(),
		ProfitPct:     opp.ProfitPct().StringFixed(4),
		Timestamp:     time.Now(),
	})
}

// orderPayload is the JSON shape carried in sequex.Event.Payload for order
// state-change events.
type orderPayload struct {
	OrderID  uint64    `json:"order_id"`
	Venue    string    `json:"venue"`
	Pair     string    `json:"pair"`
	Side     string    `json:"side"`
	State    string    `json:"state"`
	Quantity string    `json:"quantity"`
	Price    string    `json:"price"`
	At       time.Time `json:"at"`
}

// PublishOrder reports an order's current state.
func (p *Publisher) PublishOrder(o order.Order) error {
	return p.publish(fmt.Sprintf("order-%d", o.ID), sequex.EventType_ORDER_UPDATE, p.orderSubject, orderPayload{
		OrderID:  o.ID,
		Venue:    o.Venue.String(),
		Pair:     o.Pair.String(),
		Side:     o.Side.String(),
		State:    o.State.String(),
		Quantity: o.Quantity.String(),
		Price:    o.LimitPrice.String(),
		At:       time.Now(),
	})
}
