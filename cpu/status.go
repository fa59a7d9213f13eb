package cpu

// Status is the execution state reported by a CPU tick.
type Status int

//go:generate go tool stringer -linecomment -type=Status
const (
	STATUS_RUNNING = Status(0) // running
	STATUS_HALTED  = Status(1) // halted
	STATUS_FAULTED = Status(2) // faulted
)
