// ABOUTME: Gemini Live wire protocol package
// ABOUTME: Defines protocol messages, JSON codec and WebSocket dialer
// Package protocol implements the Gemini Live BidiGenerateContent wire
// protocol.
//
// Provides message types, a JSON codec and a WebSocket dialer for
// communicating with the service.
//
// Example:
//
//	endpoint, err := protocol.EndpointURL(protocol.DefaultEndpoint, apiKey)
//	conn, err := protocol.WebSocketDialer{}.Dial(ctx, endpoint)
//	err = protocol.WriteJSON(conn, protocol.NewSetup("gemini-2.0-flash-exp", "Aoede", ""))
package protocol
