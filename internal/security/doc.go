// Package security holds the suspicious-session heuristics and the
// configuration posture report.
//
// The heuristics are pure functions over session records. Gathering the
// records, and acting on the verdicts, is done by the monitor flow.
package security
