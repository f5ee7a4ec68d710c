package interfaces

import domaintypes "gotr/internal/domain/types"

// Host is the transport the embedding application supplies to a room. Every
// message argument is already base64 encoded. room is the handle passed at
// join time and is handed back untouched.
type Host interface {
	// SendAll delivers msg to every current room participant.
	SendAll(room domaintypes.Handle, msg string) error
	// SendUser delivers msg to one participant.
	SendUser(room, user domaintypes.Handle, msg string) error
	// ReceiveUser hands an authenticated chat message to the application.
	ReceiveUser(room, user domaintypes.Handle, plaintext []byte)
}
