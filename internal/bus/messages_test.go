package bus

import "testing"

func TestRecordEventRoundTrip(t *testing.T) {
	e := NewRecordEvent(ActionCreate, "rec-1", "client-a")
	if e.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be stamped")
	}

	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := RecordEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Action != ActionCreate || got.RecordID != "rec-1" || got.ClientID != "client-a" {
		t.Fatalf("round trip lost fields: %+v", got)
	}
}

func TestRecordEventFromJSONRejectsGarbage(t *testing.T) {
	if _, err := RecordEventFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
