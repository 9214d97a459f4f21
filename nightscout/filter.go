package nightscout

import "time"

// Filter narrows down fetches and deletions. Zero values do not filter.
type Filter struct {
	ID        string
	From      time.Time
	To        time.Time
	EventType EventType
	EntryType EntryType
	App       string
	// Maximum number of documents, newest first. Defaults to DefaultCount.
	Count int
}

// Nightscout only returns 10 documents when no count is given.
const DefaultCount = 10000

func (f Filter) Limit() int {
	if f.Count > 0 {
		return f.Count
	}
	return DefaultCount
}
