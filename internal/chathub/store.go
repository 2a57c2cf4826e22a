package chathub

// ChatStore is the durable-storage collaborator the hub depends on. The
// storage service implements it with Postgres; tests mock it.
type ChatStore interface {
	// IsMember reports whether the user is a durable member of the room.
	IsMember(roomID, userID int64) (bool, error)
	// SaveChatMessage persists a chat message as one transactional unit
	// together with the room transitions it implies (activate if inactive,
	// clear the sender's exit flag) and returns the new message ID.
	SaveChatMessage(roomID, senderID int64, content string) (int64, error)
	// MarkMessagesAsRead marks the room's unread messages from the other
	// participant as read and returns the highest ID marked, or nil when
	// nothing was unread.
	MarkMessagesAsRead(roomID, userID int64) (*int64, error)
}

// Notifier is the hook invoked when a committed chat message reached zero
// online recipients. Delivery to offline users is out of scope here; the
// default implementation only logs.
type Notifier interface {
	NotifyOffline(roomID, senderID int64, content string)
}
