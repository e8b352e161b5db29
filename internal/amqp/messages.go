package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mstore/internal/core"
)

// Op is the ledger mutation a message reports.
type Op string

const (
	OpAdd    Op = "add"
	OpDelete Op = "delete"
	// OpReload asks consumers to re-read everything, e.g. after a bulk import.
	OpReload Op = "reload"
)

// LedgerChangedMessage announces that a ledger was modified. It carries no
// record content; consumers read the persisted ledgers themselves.
type LedgerChangedMessage struct {
	ID        string    `json:"id"`
	Kind      core.Kind `json:"kind"`
	DateKey   string    `json:"dateKey,omitempty"`
	Op        Op        `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(kind core.Kind, dateKey string, op Op) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.NewString(),
		Kind:      kind,
		DateKey:   dateKey,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message and rejects unknown kinds or ops.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, msg.Kind)
	}
	switch msg.Op {
	case OpAdd, OpDelete, OpReload:
	default:
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
