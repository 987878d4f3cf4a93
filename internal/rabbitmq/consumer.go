package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// ErrUnprocessable сигнализирует, что сообщение невозможно обработать и повтор
// бесполезен. Обработчик оборачивает им, например, ошибки разбора JSON.
// Такие сообщения отбрасываются вместо возврата в очередь.
var ErrUnprocessable = errors.New("unprocessable message")

// maxInFlight ограничивает число одновременно обрабатываемых сообщений
// одного потребителя. Совпадает с prefetch канала.
const maxInFlight = 10

// ConsumerMessage запускает потребителя очереди. Каждое сообщение передаётся
// в handler в отдельной горутине; успешная обработка подтверждается ack,
// ошибка возвращает сообщение в очередь через nack с requeue. Ошибки,
// обёрнутые в ErrUnprocessable, отбрасывают сообщение без повтора.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: queue %s: %w", op, queueName, err)
	}

	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func() {
					defer func() { <-sem }()
					handleDelivery(queueName, d, handler)
				}()
			}
		}
	}()
	return nil
}

func handleDelivery(queueName string, d amqp.Delivery, handler func([]byte) error) {
	if err := handler(d.Body); err != nil {
		// Кривое сообщение после requeue придёт обратно тем же кривым,
		// поэтому его отбрасываем, а не зацикливаем.
		requeue := !errors.Is(err, ErrUnprocessable)
		if !requeue {
			log.Printf("queue %s: dropping message: %v", queueName, err)
		}
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Printf("queue %s: failed to nack message: %v", queueName, nackErr)
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Printf("queue %s: failed to ack message: %v", queueName, ackErr)
	}
}
