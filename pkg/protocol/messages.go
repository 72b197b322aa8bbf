// ABOUTME: Gemini Live message type definitions
// ABOUTME: Defines the setup handshake, realtime input and server envelopes
package protocol

// SetupMessage is the first message sent on a new connection
type SetupMessage struct {
	Setup Setup `json:"setup"`
}

// Setup configures the model for the session
type Setup struct {
	Model             string           `json:"model"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
}

// GenerationConfig selects output modality and voice
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// SpeechConfig holds voice selection
type SpeechConfig struct {
	VoiceConfig VoiceConfig `json:"voiceConfig"`
}

// VoiceConfig wraps the prebuilt voice choice
type VoiceConfig struct {
	PrebuiltVoiceConfig PrebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

// PrebuiltVoiceConfig names a service-provided voice
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// Content is a list of parts, optionally attributed to a role
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part carries either text or inline media
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob is base64 media tagged with its MIME type
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// RealtimeInputMessage streams media to the service
type RealtimeInputMessage struct {
	RealtimeInput RealtimeInput `json:"realtimeInput"`
}

// RealtimeInput holds outbound media chunks
type RealtimeInput struct {
	MediaChunks []Blob `json:"mediaChunks"`
}

// ServerMessage is any message received from the service. Exactly one
// field is normally set.
type ServerMessage struct {
	SetupComplete *SetupComplete `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	GoAway        *GoAway        `json:"goAway,omitempty"`
	Error         *ServerError   `json:"error,omitempty"`
}

// SetupComplete acknowledges the setup message
type SetupComplete struct{}

// ServerContent carries model output for the current turn
type ServerContent struct {
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// Transcription is text recognized from audio
type Transcription struct {
	Text string `json:"text"`
}

// GoAway warns that the service will close the connection soon
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// ServerError is an error reported in-band by the service
type ServerError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// ClientMessage is any message a client sends. The mock service uses it to
// tell setup apart from streamed input.
type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
}
