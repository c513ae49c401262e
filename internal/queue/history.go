package queue

import "github.com/eldtechnologies/speedq/internal/models"

// history is a ring buffer of drained commands indexed by id. When full the
// oldest entry is evicted. A non-positive limit disables eviction.
type history struct {
	limit int
	buf   []*models.Command
	start int
	byID  map[string]*models.Command
}

func newHistory(limit int) *history {
	h := &history{limit: limit, byID: make(map[string]*models.Command)}
	if limit > 0 {
		h.buf = make([]*models.Command, 0, limit)
	}
	return h
}

func (h *history) len() int { return len(h.buf) }

func (h *history) push(c *models.Command) {
	h.byID[c.ID] = c
	if h.limit <= 0 || len(h.buf) < h.limit {
		h.buf = append(h.buf, c)
		return
	}
	old := h.buf[h.start]
	delete(h.byID, old.ID)
	h.buf[h.start] = c
	h.start = (h.start + 1) % h.limit
}

func (h *history) get(id string) *models.Command {
	return h.byID[id]
}

// at returns the i-th oldest entry.
func (h *history) at(i int) *models.Command {
	return h.buf[(h.start+i)%len(h.buf)]
}

func (h *history) recent(n int) []models.Command {
	size := len(h.buf)
	if n <= 0 || n > size {
		n = size
	}
	out := make([]models.Command, 0, n)
	for i := size - 1; i >= size-n; i-- {
		out = append(out, *h.at(i))
	}
	return out
}
