package relay

import (
	"encoding/json"
	"testing"
)

func TestEventEncodeRoundTrip(t *testing.T) {
	e := &Event{
		Action:    ActionTypingStart,
		ChatId:    "Cchat0000001",
		SenderId:  "Ualice000000",
		Timestamp: "2026-01-02 15:04:05.000",
	}
	data := e.Encode()
	if data == nil {
		t.Fatal("encode returned nil")
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Action != ActionTypingStart || decoded.ChatId != "Cchat0000001" || decoded.SenderId != "Ualice000000" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestNewErrorEvent(t *testing.T) {
	e := NewErrorEvent(1003, "消息不存在")
	if e.Action != ActionError {
		t.Fatalf("action = %s", e.Action)
	}

	var payload errorPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Code != 1003 || payload.Msg != "消息不存在" {
		t.Fatalf("payload = %+v", payload)
	}
}
