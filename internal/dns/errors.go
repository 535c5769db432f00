package dns

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAuth              = errors.New("authentication failed")
	ErrAPI               = errors.New("DNS API request failed")
	ErrUnsupportedRecord = errors.New("unsupported record type")
	ErrRecordNotFound    = errors.New("DNS record not found")
	ErrRecordExists      = errors.New("DNS record already exists")
	ErrZoneNotFound      = errors.New("DNS zone not found")
)

// UnsupportedRecordError is returned when a change targets a record type the
// provider cannot write.
type UnsupportedRecordError struct {
	Name string
	Type string
}

func (e *UnsupportedRecordError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrUnsupportedRecord, e.Type, e.Name)
}

func (e *UnsupportedRecordError) Unwrap() error {
	return ErrUnsupportedRecord
}

// ApplyError reports a batch that stopped part way. Applied lists the changes
// that reached the API before Failed was rejected.
type ApplyError struct {
	Zone    string
	Applied []Change
	Failed  Change
	Err     error
}

func (e *ApplyError) Error() string {
	r := e.Failed.Record()
	var b strings.Builder
	fmt.Fprintf(&b, "apply %s: %s %s %q failed after %d applied change(s)",
		e.Zone, e.Failed.Action, r.Type, r.Name, len(e.Applied))
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
