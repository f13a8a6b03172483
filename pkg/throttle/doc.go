// Package throttle bounds per-identifier registration attempts with a
// fixed-window counter: a configurable number of attempts per window,
// after which further attempts are rejected until the window elapses.
//
// State lives behind the Store interface. MemoryStore keeps counters in
// process (acceptable for a single instance; state does not survive a
// restart), RedisStore shares them across processes.
package throttle
