package models

// LoadState captures the loading lifecycle of one directory listing
type LoadState struct {
	Files       map[string]FileRecord // Raw listing keyed by project-relative path
	Loading     bool                  // True while a listing request is in flight
	Initialized bool                  // Becomes true exactly once: on first success or once retries are exhausted
	Err         string                // Terminal error message; empty unless loading permanently failed
	RetryCount  int                   // Failed attempts recorded for the current load cycle
}

// Clone returns an independent copy of the state, including the file map
func (s LoadState) Clone() LoadState {
	out := s
	out.Files = CloneFileMap(s.Files)
	return out
}
