// ABOUTME: JSON codec for Gemini Live messages
// ABOUTME: Builds outbound envelopes and parses inbound server messages
package protocol

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	// ModalityAudio requests spoken responses
	ModalityAudio = "AUDIO"

	modelPrefix = "models/"
)

// Marshal encodes any outbound message
func Marshal(v any) ([]byte, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

// DecodeServerMessage parses one inbound message
func DecodeServerMessage(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse server message: %w", err)
	}
	return &msg, nil
}

// DecodeClientMessage parses one message sent by a client
func DecodeClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse client message: %w", err)
	}
	return &msg, nil
}

// NewSetup builds the handshake message. A bare model name gets the
// "models/" prefix; an empty instruction is omitted.
func NewSetup(model, voice, instruction string) SetupMessage {
	if !strings.HasPrefix(model, modelPrefix) {
		model = modelPrefix + model
	}

	setup := Setup{
		Model: model,
		GenerationConfig: GenerationConfig{
			ResponseModalities: []string{ModalityAudio},
		},
	}
	if voice != "" {
		setup.GenerationConfig.SpeechConfig = &SpeechConfig{
			VoiceConfig: VoiceConfig{
				PrebuiltVoiceConfig: PrebuiltVoiceConfig{VoiceName: voice},
			},
		}
	}
	if instruction != "" {
		setup.SystemInstruction = &Content{Parts: []Part{{Text: instruction}}}
	}

	return SetupMessage{Setup: setup}
}

// NewRealtimeInput wraps one base64 media chunk
func NewRealtimeInput(mimeType, data string) RealtimeInputMessage {
	return RealtimeInputMessage{
		RealtimeInput: RealtimeInput{
			MediaChunks: []Blob{{MimeType: mimeType, Data: data}},
		},
	}
}
