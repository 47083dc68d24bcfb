package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"forum-go/internal/config"
	appKafka "forum-go/internal/kafka"
	kafkahandlers "forum-go/internal/kafka/handlers"
	"forum-go/internal/storage"
)

// The event worker consumes group lifecycle events from Kafka and writes
// them to the group_events audit table.
func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Event worker configuration loaded.")

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Printf("Warning: database migration may have failed: %v", err)
	}

	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka consumer: %v", err)
	}
	defer consumer.Close()

	logic := kafkahandlers.NewGroupEventConsumerLogic(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutdown signal received, stopping event worker...")
		cancel()
	}()

	topics := []string{cfg.Kafka.GroupEventsTopic}
	log.Printf("Event worker consuming topic %s as group %s", cfg.Kafka.GroupEventsTopic, cfg.Kafka.ConsumerGroup)
	if err := consumer.Consume(ctx, topics, cfg.Kafka.ConsumerGroup, logic.HandleGroupEvent); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Event worker consumer failed: %v", err)
	}

	log.Println("Event worker stopped.")
}
