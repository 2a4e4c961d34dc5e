package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyUnmarshalAcceptsNumberAndString(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"100.005","b":33.333}`), &payload); err != nil {
		t.Fatalf("unmarshal money failed: %v", err)
	}
	if payload.A.String() != "100.01" {
		t.Fatalf("expected 100.01, got %s", payload.A.String())
	}
	if payload.B.String() != "33.33" {
		t.Fatalf("expected 33.33, got %s", payload.B.String())
	}

	raw, err := json.Marshal(payload.B)
	if err != nil {
		t.Fatalf("marshal money failed: %v", err)
	}
	if string(raw) != `"33.33"` {
		t.Fatalf("unexpected json: %s", raw)
	}
}

func TestNewMoneyFromStringRejectsGarbage(t *testing.T) {
	if _, err := NewMoneyFromString("abc"); err == nil {
		t.Fatalf("expected parse error")
	}
}
