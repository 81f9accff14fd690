package amqp

import (
	"encoding/json"
	"time"
)

// Entities named in a SummarySyncMessage.
const (
	EntityTransaction = "transaction"
	EntityPlan        = "plan"
	EntityFull        = "full"
)

// SummarySyncMessage tells the worker that stored data changed and the
// exported summary is stale. The worker recomputes everything from the store,
// so the message only identifies what changed.
type SummarySyncMessage struct {
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	Year      int       `json:"year"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSummarySyncMessage(entity string, id int64, year int) *SummarySyncMessage {
	return &SummarySyncMessage{
		Entity:    entity,
		ID:        id,
		Year:      year,
		Timestamp: time.Now(),
	}
}

func (m *SummarySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SummarySyncMessageFromJSON(data []byte) (*SummarySyncMessage, error) {
	var msg SummarySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
