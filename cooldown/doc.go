// Package cooldown provides reload-safe countdown persistence for recovery
// flows (forgot-password and resend-activation resends).
//
// A cooldown is keyed by the recovery subject (typically an email address) and
// stored as a {startedAt, duration} record. Remaining time is always
// recomputed from the persisted start, never from an in-process counter, so a
// process restart mid-countdown resumes the countdown instead of resetting it.
//
// Two racing writers for the same key overwrite each other (last writer wins),
// but a record is always written in a single SET, so readers never observe a
// partial one. Records expire from Redis on their own once the cooldown
// elapses.
package cooldown
