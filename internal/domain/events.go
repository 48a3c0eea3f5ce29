package domain

// Push event names carried on a scrape job's progress channel.
const (
	EventRecordDone  = "record_done"
	EventJobComplete = "job_complete"
)

// PushEvent is one message from the server's push channel. The channel is
// best-effort: events may be duplicated, reordered relative to polling
// responses, or never arrive at all.
type PushEvent struct {
	Event    string `json:"event"`
	RecordID string `json:"reference_id,omitempty"`
}

// Done reports whether this event terminates the channel.
func (e PushEvent) Done() bool { return e.Event == EventJobComplete }
