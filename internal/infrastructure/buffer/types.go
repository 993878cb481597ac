package buffer

import (
	"time"

	"github.com/google/uuid"
)

// Item represents a cart whose read-model view must be rebuilt once the
// backing stores are reachable again. The payload is just the cart identity;
// the refresher re-materializes the cart from its stream.
type Item struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cart_id"`
	Priority  int       `json:"priority"`
	Retries   int       `json:"retries"`
	Timestamp time.Time `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = 3
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
