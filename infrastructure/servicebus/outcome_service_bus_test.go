package servicebus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"social-hub/infrastructure/servicebus"
)

func TestNewOutcomeServiceBus(t *testing.T) {
	// Construction only; sending requires a live Service Bus client.
	sb := servicebus.NewOutcomeServiceBus(nil, "publish-outcomes")
	assert.NotNil(t, sb)
}
