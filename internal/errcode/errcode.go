package errcode

// Error code convention:
// - 0: no error
// - 4xxx: recoverable/warning conditions (the flow continued)
// - 5xxx: system errors (the flow was aborted)
const (
	OK             = 0
	DataDegraded   = 4004
	ProfileMissing = 4040
	SystemError    = 5000
)
