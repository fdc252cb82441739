package bdilog

import "time"

// Common field constructors.

func String(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Component field helpers for common BDI component names.

func Component(name string) Field { return String("component", name) }

// NodeID logs the node id under operation.
func NodeID(id uint64) Field { return Uint64("node_id", id) }

// PortIndex logs a data port slot index.
func PortIndex(idx uint32) Field { return Uint64("port_index", uint64(idx)) }

// Op logs the opcode name being dispatched.
func Op(name string) Field { return String("op", name) }

// RegionID logs a memory region identifier.
func RegionID(id uint64) Field { return Uint64("region_id", id) }

// Step logs the interpreter's current fetch/decode/execute step counter.
func Step(n uint64) Field { return Uint64("step", n) }

// Latency logs an operation's wall-clock duration.
func Latency(d time.Duration) Field { return Duration("latency", d) }

// Count logs a generic item count.
func Count(n int) Field { return Int("count", n) }

// Path logs a filesystem path.
func Path(p string) Field { return String("path", p) }
