package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"concertticket/internal/ledger"
)

// EventMessage is one program event of a committed transaction, as
// published to the broker.
type EventMessage struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Program   ledger.Pubkey    `json:"program"`
	Signature ledger.Signature `json:"signature"`
	Slot      uint64           `json:"slot"`
	BlockTime time.Time        `json:"block_time"`
	Payload   json.RawMessage  `json:"payload"`

	// Key orders messages of the same venue on one partition.
	Key string `json:"key"`
}

func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// partitionKey picks the venue address out of the payload, falling back
// to the emitting program.
func partitionKey(ev ledger.Event) string {
	var keyed struct {
		Venue *ledger.Pubkey `json:"venue"`
	}
	if err := json.Unmarshal(ev.Payload, &keyed); err == nil && keyed.Venue != nil {
		return keyed.Venue.String()
	}
	return ev.Program.String()
}

// MessagesFromRecord converts the events of a successful record. Failed
// records yield nothing.
func MessagesFromRecord(record *ledger.TransactionRecord) []*EventMessage {
	if !record.Succeeded() || len(record.Events) == 0 {
		return nil
	}
	out := make([]*EventMessage, 0, len(record.Events))
	for _, ev := range record.Events {
		out = append(out, &EventMessage{
			ID:        uuid.New(),
			Name:      ev.Name,
			Program:   ev.Program,
			Signature: record.Signature,
			Slot:      record.Slot,
			BlockTime: record.BlockTime,
			Payload:   ev.Payload,
			Key:       partitionKey(ev),
		})
	}
	return out
}
