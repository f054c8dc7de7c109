package bus

import (
	"encoding/json"
	"time"
)

const (
	ActionCreate = "create"
	ActionDelete = "delete"
)

// RecordEvent announces that a record was created or deleted somewhere.
// It carries only the id and the acting client: consumers reload the full
// collection from the backing store rather than patching from the event.
type RecordEvent struct {
	Action    string    `json:"action"`
	RecordID  string    `json:"record_id"`
	ClientID  string    `json:"client_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(action, recordID, clientID string) *RecordEvent {
	return &RecordEvent{
		Action:    action,
		RecordID:  recordID,
		ClientID:  clientID,
		Timestamp: time.Now(),
	}
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
