package dns

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestApplyError(t *testing.T) {
	cause := fmt.Errorf("wrapped: %w", ErrAPI)
	applied := Record{Name: "one", Type: TypeA}
	failed := Record{Name: "two", Type: TypeA}

	err := error(&ApplyError{
		Zone:    "unit.tests.",
		Applied: []Change{{Action: ActionCreate, Desired: &applied}},
		Failed:  Change{Action: ActionDelete, Existing: &failed},
		Err:     cause,
	})

	if !errors.Is(err, ErrAPI) {
		t.Errorf("expected ApplyError to unwrap to ErrAPI")
	}
	msg := err.Error()
	for _, want := range []string{"unit.tests.", "delete", `"two"`, "1 applied"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestUnsupportedRecordError(t *testing.T) {
	err := error(&UnsupportedRecordError{Name: "www", Type: "SPF"})
	if !errors.Is(err, ErrUnsupportedRecord) {
		t.Error("expected UnsupportedRecordError to match ErrUnsupportedRecord")
	}
	if !strings.Contains(err.Error(), "SPF") {
		t.Errorf("expected type in message, got %q", err.Error())
	}
}
