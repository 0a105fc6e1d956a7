package kernel

import "time"

// EventType names one kind of lifecycle occurrence.
type EventType string

// Event types emitted by the kernel.
const (
	EventBoot            EventType = "boot"
	EventThreadCreated   EventType = "thread_created"
	EventThreadExited    EventType = "thread_exited"
	EventThreadDetached  EventType = "thread_detached"
	EventThreadJoined    EventType = "thread_joined"
	EventDescriptorFreed EventType = "descriptor_freed"
	EventProcessSpawned  EventType = "process_spawned"
	EventProcessReaped   EventType = "process_reaped"
	EventCascade         EventType = "cascade"
	EventStreamOpened    EventType = "stream_opened"
	EventStreamClosed    EventType = "stream_closed"
)

// Event is one recorded lifecycle occurrence. Fields beyond Seq, Time,
// and Type are populated per type; zero values are omitted on the wire.
type Event struct {
	Seq     uint64        `json:"seq"`
	Time    time.Time     `json:"time"`
	Type    EventType     `json:"type"`
	PID     PID           `json:"pid,omitempty"`
	PPID    PID           `json:"ppid,omitempty"`
	TID     string        `json:"tid,omitempty"`
	FD      int           `json:"fd,omitempty"`
	Name    string        `json:"name,omitempty"`
	Value   int           `json:"value,omitempty"`
	Outcome string        `json:"outcome,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
}

// EventSink receives events as they are recorded. Record runs under the
// kernel lock and must not block; slow consumers buffer or drop on their
// side.
type EventSink interface {
	Record(Event)
}
