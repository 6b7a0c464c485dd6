package catalog

import "fmt"

// Fetch stages reported in FetchError.
const (
	StageListing = "listing"
	StageData    = "data"
	StageParse   = "parse"
)

// FetchError is returned when the release listing or the latest release's
// data file cannot be retrieved or decoded.
type FetchError struct {
	Stage string
	URL   string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("catalog %s fetch from %s: %v", e.Stage, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
