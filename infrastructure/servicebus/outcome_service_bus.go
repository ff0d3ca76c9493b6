package servicebus

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"social-hub/infrastructure/logger"
)

// IOutcomeServiceBus mirrors publish-outcome events onto an Azure Service Bus
// queue for tenants integrating through Azure.
type IOutcomeServiceBus interface {
	SendMessage(message []byte) error
	GetMessage(count int)
}

type OutcomeServicebus struct {
	AzservicebusClient *azservicebus.Client
	Queue              string
}

func NewOutcomeServiceBus(azServiceBusClient *azservicebus.Client, queue string) IOutcomeServiceBus {
	return &OutcomeServicebus{AzservicebusClient: azServiceBusClient, Queue: queue}
}

func (o *OutcomeServicebus) SendMessage(message []byte) error {
	sender, err := o.AzservicebusClient.NewSender(o.Queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		err := sender.Close(ctx)
		if err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, context.Background())

	sbMessage := &azservicebus.Message{
		Body: message,
	}
	err = sender.SendMessage(context.Background(), sbMessage, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}

	return nil
}

func (o *OutcomeServicebus) GetMessage(count int) {
	receiver, err := o.AzservicebusClient.NewReceiverForQueue(o.Queue, nil)
	if err != nil {
		panic(err)
	}
	defer func(receiver *azservicebus.Receiver, ctx context.Context) {
		err := receiver.Close(ctx)
		if err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing receiver.")
		}
	}(receiver, context.Background())

	messages, err := receiver.ReceiveMessages(context.Background(), count, nil)
	if err != nil {
		panic(err)
	}

	for _, message := range messages {
		body := message.Body
		fmt.Printf("%s\n", string(body))

		err = receiver.CompleteMessage(context.Background(), message, nil)
		if err != nil {
			panic(err)
		}
	}
}
