package service

// Publishers fans each event out to every publisher in order.
type Publishers []EventPublisher

func (p Publishers) Publish(eventType string, payload any) {
	for _, pub := range p {
		pub.Publish(eventType, payload)
	}
}
