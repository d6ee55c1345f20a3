package service

// Publisher receives domain events after their transaction commits.
// *ws.Hub satisfies it.
type Publisher interface {
	Publish(payload map[string]interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(map[string]interface{}) {}

func publisherOrNoop(p Publisher) Publisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
