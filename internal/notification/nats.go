package notification

import (
	"BotSpectra/internal/config"
	"BotSpectra/internal/model"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// NATSNotifier publishes notifications to a NATS subject as protobuf Structs.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
}

// NewNATSNotifier connects to the configured NATS server.
func NewNATSNotifier(cfg config.NATSConfig) (*NATSNotifier, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("botspectra-notifier"))
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &NATSNotifier{nc: nc, subject: cfg.Subject}, nil
}

// Notify serializes the notification and publishes it.
func (n *NATSNotifier) Notify(ctx context.Context, msg model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	if err := n.nc.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish to '%s': %w", n.subject, err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (n *NATSNotifier) Close() {
	if n.nc != nil {
		n.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}

// ToStruct converts a notification to its wire form.
func ToStruct(msg model.Notification) (*structpb.Struct, error) {
	fields := map[string]any{
		"runId":       msg.RunID,
		"kind":        string(msg.Kind),
		"title":       msg.Title,
		"description": msg.Description,
		"timestamp":   msg.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if s := msg.Stats; s != nil {
		fields["stats"] = map[string]any{
			"totalDevices":    s.TotalDevices,
			"threatsBlocked":  s.ThreatsBlocked,
			"underMonitoring": s.UnderMonitoring,
			"cleanDevices":    s.CleanDevices,
			"processingTime":  s.ProcessingTime,
			"accuracy":        s.Accuracy,
		}
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build notification struct: %w", err)
	}
	return st, nil
}

// Encode serializes a notification to protobuf.
func Encode(msg model.Notification) ([]byte, error) {
	st, err := ToStruct(msg)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// Decode parses a payload produced by Encode.
func Decode(data []byte) (model.Notification, *structpb.Struct, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return model.Notification{}, nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	f := st.GetFields()
	msg := model.Notification{
		RunID:       f["runId"].GetStringValue(),
		Kind:        model.NotificationKind(f["kind"].GetStringValue()),
		Title:       f["title"].GetStringValue(),
		Description: f["description"].GetStringValue(),
	}
	if ts := f["timestamp"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return model.Notification{}, nil, fmt.Errorf("invalid notification timestamp: %w", err)
		}
		msg.Timestamp = t
	}
	if sv := f["stats"].GetStructValue(); sv != nil {
		s := sv.GetFields()
		msg.Stats = &model.AnalysisStats{
			TotalDevices:    int(s["totalDevices"].GetNumberValue()),
			ThreatsBlocked:  int(s["threatsBlocked"].GetNumberValue()),
			UnderMonitoring: int(s["underMonitoring"].GetNumberValue()),
			CleanDevices:    int(s["cleanDevices"].GetNumberValue()),
			ProcessingTime:  int64(s["processingTime"].GetNumberValue()),
			Accuracy:        s["accuracy"].GetNumberValue(),
		}
	}
	return msg, &st, nil
}
