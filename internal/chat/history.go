package chat

// history is a fixed-capacity ring of chat messages. The oldest entry is
// overwritten once it is full. Callers hold the hub lock.
type history struct {
	buf   []Message
	start int
	size  int
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = 1
	}
	return &history{buf: make([]Message, capacity)}
}

func (h *history) append(m Message) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = m
		h.size++
		return
	}
	h.buf[h.start] = m
	h.start = (h.start + 1) % len(h.buf)
}

// snapshot returns the messages oldest first.
func (h *history) snapshot() []Message {
	out := make([]Message, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// redact replaces the text of every entry matching target and reports how many changed.
func (h *history) redact(target Message, text string) int {
	n := 0
	for i := 0; i < h.size; i++ {
		m := &h.buf[(h.start+i)%len(h.buf)]
		if m.Message == target.Message && m.Username == target.Username && m.Date.Equal(target.Date) {
			m.Message = text
			n++
		}
	}
	return n
}
