// Package chathub serves multi-room chat over websockets.
//
//     chathub -addr=:8081
//
// Everything is as ephemeral as can be. A message is sent to the room's
// connected participants (including its author) and then forgotten. A room
// is forgotten when its last participant disconnects.
//
// Join a room by opening a websocket to
//     ws://localhost:8081/ws/room/<room>/user/<name>
//
// Publish by sending a JSON text frame.
//     {"message": "hi"}
//
// Every participant in the room, the sender included, receives
//     {"user": "<name>", "message": "hi"}
//
// Messages longer than 128 characters are dropped without reply. A frame
// that is not a JSON object with a string "message" ends the session.
//
// Publish by POSTing the same JSON to the same path.
//     curl localhost:8081/ws/room/7/user/alice -d '{"message":"hi"}'
//
// Each message handed to a participant counts as a view.
//     curl localhost:8081/views
//     curl -X POST localhost:8081/reset
//
// A liveness handshake lives at ws://localhost:8081/ws/ping: send "serve"
// once, then every "ping" is answered with "pong".
//
// Non-websocket GET requests to a room path are served HTML with a
// websocket client that joins the room.
//     http://localhost:8081/ws/room/7/user/alice
package main

const (
	nameLenMin = 1
	nameLenMax = 256

	// Longest message text, in characters, that is published.
	maxTextLen = 128

	// Per-subscriber buffer when none is configured.
	defaultBuffer = 256
)
