package xr

// EventKind discriminates Device events.
type EventKind int

const (
	// EventFrame carries per-frame session state in Event.Frame.
	EventFrame EventKind = iota

	// EventSelect is a primary-trigger select gesture.
	EventSelect

	// EventSessionEnded means the session ended on the device, whether we
	// asked for it or not. Event.Reason explains which.
	EventSessionEnded

	// EventModelReady reports the result of loading the exhibit model,
	// carried in Event.Model.
	EventModelReady

	// EventDeviceOffline means the device connection dropped. A session
	// that was active is gone with it.
	EventDeviceOffline

	// EventDeviceOnline means a device connected and identified itself.
	EventDeviceOnline
)

func (k EventKind) String() string {
	switch k {
	case EventFrame:
		return "frame"
	case EventSelect:
		return "select"
	case EventSessionEnded:
		return "session_ended"
	case EventModelReady:
		return "model_ready"
	case EventDeviceOffline:
		return "device_offline"
	case EventDeviceOnline:
		return "device_online"
	}
	return "unknown"
}

// Event is one item on the Device event stream. Exactly the field matching
// Kind is populated.
type Event struct {
	Kind   EventKind
	Frame  *Frame
	Model  *ModelReport
	Reason string
}
