package core

// Frame is a raw binary payload (e.g., an opus audio frame). The relay
// never inspects its contents.
type Frame []byte

// Conn is the live connection to one participant.
// Owned by the adapter; the adapter must Close() it. Implementations
// must serialize their own writes: a media frame and a status event may
// target the same connection concurrently.
type Conn interface {
	SendBinary(data []byte) error
	SendText(data []byte) error
	Close() error
}
