package kafka

import (
	"strings"
	"testing"
)

type searchPayload struct {
	Query string `json:"query"`
	Hits  int    `json:"hits"`
}

func TestEncodeDecode(t *testing.T) {
	msg, err := encode(Event{Key: "cat", Type: "search", Value: searchPayload{Query: "cat", Hits: 2}})
	if err != nil {
		t.Fatal(err)
	}
	msg.Topic = "vsm.search-events"

	got := decode(msg)
	if got.Type != "search" || got.Topic != "vsm.search-events" || string(got.Key) != "cat" {
		t.Errorf("decoded message = %+v", got)
	}
	payload, err := DecodeJSON[searchPayload](got.Value)
	if err != nil {
		t.Fatal(err)
	}
	if payload != (searchPayload{Query: "cat", Hits: 2}) {
		t.Errorf("payload = %+v", payload)
	}
}

func TestEncodeRejectsUnmarshalableValue(t *testing.T) {
	_, err := encode(Event{Type: "search", Value: make(chan int)})
	if err == nil || !strings.Contains(err.Error(), "search event") {
		t.Errorf("err = %v", err)
	}
}

func TestDecodeWithoutTypeHeader(t *testing.T) {
	msg, _ := encode(Event{Type: "search", Value: 1})
	msg.Headers = nil
	if got := decode(msg); got.Type != "" {
		t.Errorf("Type = %q, want empty", got.Type)
	}
}
