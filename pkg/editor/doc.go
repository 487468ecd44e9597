// Package editor drives a mind map the way an interactive front end does.
//
// An [Editor] owns one [mindmap.Model] and serialises every change to it:
// insertions, edits, layout passes and the adoption of snapshots returned by
// the backend all run to completion under one lock. Backend requests run
// outside the lock. Each is stamped with a sequence number when issued, and
// a response is only adopted if no newer request was issued in the
// meantime; otherwise it is dropped with [ErrStale].
//
// A failed load or save leaves the model exactly as it was. A successful
// save replaces the model with the backend's copy, so edits made while the
// save was in flight are lost. Callers that care should not edit during a
// save.
package editor
