package main

import (
	"BotSpectra/internal/config"
	"BotSpectra/internal/model"
	"BotSpectra/internal/notification"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file")
	natsURL := flag.String("nats", "", "NATS server URL (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	natsCfg := cfg.Notifier.NATS
	if *natsURL != "" {
		natsCfg.URL = *natsURL
	}

	sub, err := notification.NewSubscriber(natsCfg)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	marshaler := protojson.MarshalOptions{Multiline: true, Indent: "  "}
	err = sub.Start(func(msg model.Notification, raw *structpb.Struct) {
		out, err := marshaler.Marshal(raw)
		if err != nil {
			log.Printf("Failed to render notification %s: %v", msg.RunID, err)
			return
		}
		fmt.Printf("--- %s: %s ---\n%s\n", msg.Kind, msg.Title, out)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Watcher shutting down...")
}
