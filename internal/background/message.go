package background

// Message types understood by the worker. The values are the wire-level
// protocol shared with the foreground scheduler.
const (
	MsgScheduleReminder = "scheduleReminder"
	MsgSkipWaiting      = "SKIP_WAITING"
)

// Message is the fire-and-forget descriptor posted to the worker. For
// scheduleReminder, Time is the absolute fire instant in epoch
// milliseconds and Sound names the audio asset to play on expiry.
type Message struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	Time  int64  `json:"time,omitempty"`
	Sound string `json:"sound,omitempty"`
}
