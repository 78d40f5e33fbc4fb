package implementors

// Consumer receives merged implementor data. A consumer may be invoked many
// times over the registry's lifetime; every delivery is additive.
type Consumer interface {
	Consume(delivery Implementors)
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(delivery Implementors)

// Consume calls f(delivery).
func (f ConsumerFunc) Consume(delivery Implementors) { f(delivery) }

// deliveryState is either unattached (buffering) or attached (forwarding).
type deliveryState interface {
	isDeliveryState()
}

// unattached buffers fragments, oldest first, until a consumer attaches.
type unattached struct {
	pending []Implementors
}

// attached forwards every fragment to consumer.
type attached struct {
	consumer Consumer
}

func (*unattached) isDeliveryState() {}
func (*attached) isDeliveryState()   {}
