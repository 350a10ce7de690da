package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/streadway/amqp"
)

// ConsumerMessage создает потребителя сообщений из очереди RabbitMQ.
// Одновременно обрабатывается не более 10 сообщений; каждое сообщение
// обрабатывается в своей горутине, ошибка одного не задерживает остальные.
// Ошибка обработчика означает непригодное сообщение: оно отклоняется без
// возврата в очередь, чтобы не зациклить доставку.
// Возвращаемый канал закрывается после отмены контекста, когда все уже
// запущенные обработчики завершились: до этого закрывать AMQP-канал нельзя,
// иначе ack/nack потеряются и сообщения уйдут в повторную доставку.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error) (<-chan struct{}, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, 10)
	done := make(chan struct{})
	var wg sync.WaitGroup
	go func() {
		defer close(done)
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					wg.Wait()
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(delivery amqp.Delivery) {
					defer func() {
						<-sem
						wg.Done()
					}()
					if err := handler(delivery.Body); err != nil {
						if nackErr := delivery.Nack(false, false); nackErr != nil {
							log.Printf("failed to nack message: %v", nackErr)
						}
						return
					}
					if ackErr := delivery.Ack(false); ackErr != nil {
						log.Printf("failed to ack message: %v", ackErr)
					}
				}(d)
			case <-ctx.Done():
				wg.Wait()
				return
			}
		}
	}()
	return done, nil
}
