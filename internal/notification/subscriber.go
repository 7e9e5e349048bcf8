package notification

import (
	"BotSpectra/internal/config"
	"BotSpectra/internal/model"
	"log"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler processes a received notification together with its raw wire form.
type Handler func(msg model.Notification, raw *structpb.Struct)

// Subscriber is responsible for subscribing to a NATS subject and processing messages.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.NATSConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("botspectra-watch"))
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes to the configured subject and hands every decoded message to handler.
func (s *Subscriber) Start(handler Handler) error {
	sub, err := s.nc.Subscribe(s.subject, func(m *nats.Msg) {
		msg, raw, err := Decode(m.Data)
		if err != nil {
			log.Printf("Error decoding notification: %v", err)
			return
		}
		handler(msg, raw)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for messages...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
