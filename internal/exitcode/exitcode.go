package exitcode

const (
	Success        = 0
	RuntimeFailure = 1
	InvalidUsage   = 2
	InvalidConfig  = 3
	Unavailable    = 4
	PartialSuccess = 5
	NotFound       = 6
	Interrupted    = 130
)
