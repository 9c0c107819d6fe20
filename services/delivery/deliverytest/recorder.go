// Package deliverytest provides an in-memory stand-in for the delivery
// dispatcher.
package deliverytest

import (
	"sync"

	"github.com/tech-arch1tect/accounts/services/delivery"
)

type Message struct {
	Kind      delivery.Kind
	Recipient string
	Payload   delivery.Payload
}

type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Deliver(kind delivery.Kind, recipient string, payload delivery.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Kind: kind, Recipient: recipient, Payload: payload})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

func (r *Recorder) OfKind(kind delivery.Kind) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent message of kind, if any.
func (r *Recorder) Last(kind delivery.Kind) (Message, bool) {
	msgs := r.OfKind(kind)
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.messages = nil
	r.mu.Unlock()
}
