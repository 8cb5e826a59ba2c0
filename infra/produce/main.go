package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	ThumbnailService *ThumbnailProduceService
}

func InitProduce(channel *amqp.Channel, queueName string) *Produce {
	thumbnailService := InitThumbnailProduceService(channel, queueName)
	if thumbnailService == nil {
		panic("Failed to initialize Thumbnail produce service")
	}

	return &Produce{
		ThumbnailService: thumbnailService,
	}
}
