// ABOUTME: Tests for Gemini Live message encoding
// ABOUTME: Verifies wire shapes of setup, realtime input and server messages
package protocol

import (
	"strings"
	"testing"
)

func TestSetupWireShape(t *testing.T) {
	data, err := Marshal(NewSetup("gemini-2.0-flash-exp", "Aoede", "Be brief"))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	expected := `{"setup":{"model":"models/gemini-2.0-flash-exp","generationConfig":{"responseModalities":["AUDIO"],"speechConfig":{"voiceConfig":{"prebuiltVoiceConfig":{"voiceName":"Aoede"}}}},"systemInstruction":{"parts":[{"text":"Be brief"}]}}}`
	if string(data) != expected {
		t.Errorf("unexpected setup:\n got %s\nwant %s", data, expected)
	}
}

func TestSetupModelPrefix(t *testing.T) {
	tests := []struct {
		model    string
		expected string
	}{
		{"gemini-2.0-flash-exp", "models/gemini-2.0-flash-exp"},
		{"models/gemini-2.0-flash-exp", "models/gemini-2.0-flash-exp"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			setup := NewSetup(tt.model, "", "")
			if setup.Setup.Model != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, setup.Setup.Model)
			}
		})
	}
}

func TestSetupOmitsEmptyFields(t *testing.T) {
	data, err := Marshal(NewSetup("m", "", ""))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	s := string(data)
	if strings.Contains(s, "speechConfig") {
		t.Errorf("expected no speechConfig without voice: %s", s)
	}
	if strings.Contains(s, "systemInstruction") {
		t.Errorf("expected no systemInstruction without text: %s", s)
	}
}

func TestRealtimeInputWireShape(t *testing.T) {
	data, err := Marshal(NewRealtimeInput("audio/pcm;rate=48000", "AAA="))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	expected := `{"realtimeInput":{"mediaChunks":[{"mimeType":"audio/pcm;rate=48000","data":"AAA="}]}}`
	if string(data) != expected {
		t.Errorf("unexpected realtime input:\n got %s\nwant %s", data, expected)
	}
}

func TestDecodeServerContent(t *testing.T) {
	data := []byte(`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AAA="}},{"text":"hello"}]},"turnComplete":true}}`)

	msg, err := DecodeServerMessage(data)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if msg.ServerContent == nil || msg.ServerContent.ModelTurn == nil {
		t.Fatal("expected model turn")
	}

	parts := msg.ServerContent.ModelTurn.Parts
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.MimeType != "audio/pcm;rate=24000" {
		t.Errorf("unexpected inline data: %+v", parts[0].InlineData)
	}
	if parts[1].Text != "hello" {
		t.Errorf("expected text part, got %+v", parts[1])
	}
	if !msg.ServerContent.TurnComplete {
		t.Error("expected turnComplete")
	}
}

func TestDecodeControlMessages(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		check func(*ServerMessage) bool
	}{
		{"setupComplete", `{"setupComplete":{}}`, func(m *ServerMessage) bool { return m.SetupComplete != nil }},
		{"goAway", `{"goAway":{"timeLeft":"5s"}}`, func(m *ServerMessage) bool { return m.GoAway != nil && m.GoAway.TimeLeft == "5s" }},
		{"interrupted", `{"serverContent":{"interrupted":true}}`, func(m *ServerMessage) bool { return m.ServerContent != nil && m.ServerContent.Interrupted }},
		{"error", `{"error":{"code":400,"message":"bad"}}`, func(m *ServerMessage) bool { return m.Error != nil && m.Error.Code == 400 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeServerMessage([]byte(tt.data))
			if err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if !tt.check(msg) {
				t.Errorf("unexpected message: %+v", msg)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := DecodeServerMessage([]byte(`{"serverContent":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestDecodeClientMessage(t *testing.T) {
	setupData, err := Marshal(NewSetup("m", "Aoede", ""))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	msg, err := DecodeClientMessage(setupData)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if msg.Setup == nil || msg.Setup.Model != "models/m" || msg.RealtimeInput != nil {
		t.Errorf("unexpected setup decode %+v", msg)
	}

	inputData, err := Marshal(NewRealtimeInput("audio/pcm;rate=48000", "AAA="))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	msg, err = DecodeClientMessage(inputData)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if msg.RealtimeInput == nil || len(msg.RealtimeInput.MediaChunks) != 1 {
		t.Fatalf("unexpected input decode %+v", msg)
	}
	if !strings.HasPrefix(msg.RealtimeInput.MediaChunks[0].MimeType, "audio/pcm") {
		t.Errorf("unexpected mime type %q", msg.RealtimeInput.MediaChunks[0].MimeType)
	}

	if _, err := DecodeClientMessage([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
