// Package transport owns the websocket. A single Worker goroutine dials,
// writes and heartbeats; a reader goroutine per connection relays inbound
// frames. Callers talk to the worker only through its mailboxes.
package transport

// Event is sent from the worker to its owner. Every event carries the
// generation of the connection it belongs to, so the owner can ignore events
// from a socket it already replaced.
type Event interface {
	Generation() uint64
	isEvent()
}

// Connected reports a successful dial.
type Connected struct {
	Conn uint64
	URL  string
}

// Message carries one inbound binary frame.
type Message struct {
	Conn uint64
	Data []byte
}

// Failed reports a dial that did not complete.
type Failed struct {
	Conn uint64
	URL  string
	Err  error
}

// Disconnected reports that an open connection ended. Err is nil when the
// close was requested locally.
type Disconnected struct {
	Conn uint64
	Err  error
}

func (e Connected) Generation() uint64    { return e.Conn }
func (e Message) Generation() uint64      { return e.Conn }
func (e Failed) Generation() uint64       { return e.Conn }
func (e Disconnected) Generation() uint64 { return e.Conn }

func (Connected) isEvent()    {}
func (Message) isEvent()      {}
func (Failed) isEvent()       {}
func (Disconnected) isEvent() {}
