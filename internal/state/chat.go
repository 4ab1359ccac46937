package state

// ChatCapacity is the number of lines kept in the chat log.
const ChatCapacity = 50

// ChatLine is one received chat message.
type ChatLine struct {
	PlayerID uint8
	Name     string
	Color    string // #rrggbb, empty when the player had no color
	Text     string
}

// ChatLog is a bounded ring of chat lines; the oldest line is dropped first.
type ChatLog struct {
	lines []ChatLine
	start int
	size  int
}

// NewChatLog creates a log holding at most capacity lines.
func NewChatLog(capacity int) *ChatLog {
	if capacity <= 0 {
		capacity = ChatCapacity
	}
	return &ChatLog{lines: make([]ChatLine, capacity)}
}

// Add appends a line, evicting the oldest when full.
func (l *ChatLog) Add(line ChatLine) {
	idx := (l.start + l.size) % len(l.lines)
	l.lines[idx] = line
	if l.size < len(l.lines) {
		l.size++
		return
	}
	l.start = (l.start + 1) % len(l.lines)
}

// Lines returns the log oldest first.
func (l *ChatLog) Lines() []ChatLine {
	out := make([]ChatLine, 0, l.size)
	for i := 0; i < l.size; i++ {
		out = append(out, l.lines[(l.start+i)%len(l.lines)])
	}
	return out
}

// Len returns the number of lines held.
func (l *ChatLog) Len() int {
	return l.size
}
