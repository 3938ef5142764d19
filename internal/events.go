// Copyright 2026 PageForge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Change events for downstream consumers (question generation, draft
// generation, export). Structural TOC mutations are published to kafka;
// when no broker is configured the publisher is a no-op so the API can
// run standalone.

const TocChangedTopic = "book.toc.changed"

var kafkaProducer sarama.AsyncProducer

// TocChangedEvent is the payload published for every committed structural
// mutation. RemovedChapterIDs is only set for deletes, so consumers can
// drop their per-chapter artifacts.
type TocChangedEvent struct {
	BookID            string   `json:"bookId"`
	Operation         string   `json:"operation"`
	NewVersion        uint32   `json:"newVersion"`
	RemovedChapterIDs []string `json:"removedChapterIds,omitempty"`
	TimestampMs       int64    `json:"timestampMs"`
}

// InitKafkaProducer connects the async producer to the given
// comma-separated broker list.
func InitKafkaProducer(bootstrapServers string) error {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Return.Errors = true
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewAsyncProducer(strings.Split(bootstrapServers, ","), config)
	if err != nil {
		return err
	}
	kafkaProducer = producer

	go func() {
		for prodErr := range producer.Errors() {
			zap.S().Errorf("Failed to publish change event: %v", prodErr)
		}
	}()
	return nil
}

// CloseKafkaProducer drains and shuts down the producer.
func CloseKafkaProducer() {
	if kafkaProducer == nil {
		return
	}
	if err := kafkaProducer.Close(); err != nil {
		zap.S().Errorf("Error closing kafka producer: %v", err)
	}
	kafkaProducer = nil
}

// PublishTocChanged emits one change event, keyed by book id so all
// events of a book land on one partition in order.
func PublishTocChanged(event TocChangedEvent) {
	if kafkaProducer == nil {
		return
	}
	event.TimestampMs = time.Now().UnixMilli()
	payload, err := json.Marshal(event)
	if err != nil {
		zap.S().Errorf("Failed to marshal change event for book %s: %v", event.BookID, err)
		return
	}
	kafkaProducer.Input() <- &sarama.ProducerMessage{
		Topic: TocChangedTopic,
		Key:   sarama.StringEncoder(event.BookID),
		Value: sarama.ByteEncoder(payload),
	}
}
