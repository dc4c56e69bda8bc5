package errors

import (
	"fmt"
	"testing"
)

func TestBrowseError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeSourceUnavailable, "source not found")
	if err.Code != ErrCodeSourceUnavailable {
		t.Errorf("expected code %s, got %s", ErrCodeSourceUnavailable, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodePollFailed, "poll failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodePollFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeSourceUnavailable) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("serviceType", "_http._tcp").WithDetail("port", 8080)
	if detailed.Details["serviceType"] != "_http._tcp" {
		t.Error("WithDetail should add details")
	}
}

func TestIsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("starting session: %w", ServiceTypeInvalid("http", "missing protocol label"))
	if !Is(err, ErrCodeServiceTypeInvalid) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}
	if GetCode(err) != ErrCodeServiceTypeInvalid {
		t.Errorf("GetCode = %s, want %s", GetCode(err), ErrCodeServiceTypeInvalid)
	}
}

func TestIsNestedBrowseError(t *testing.T) {
	inner := ServiceTypeInvalid("_x", "missing protocol label")
	outer := Wrap(inner, ErrCodeConfigInvalid, "discovery section")
	if !Is(outer, ErrCodeServiceTypeInvalid) {
		t.Error("Is should match a wrapped BrowseError's code")
	}
	if GetCode(outer) != ErrCodeConfigInvalid {
		t.Errorf("GetCode should report the outermost code, got %s", GetCode(outer))
	}
}

func TestErrorConstructors(t *testing.T) {
	// Test ServiceTypeInvalid
	err := ServiceTypeInvalid("bogus", "missing protocol label")
	if err.Code != ErrCodeServiceTypeInvalid {
		t.Errorf("expected code %s, got %s", ErrCodeServiceTypeInvalid, err.Code)
	}
	if err.Details["serviceType"] != "bogus" {
		t.Error("ServiceTypeInvalid should include serviceType detail")
	}

	// Test WriterClaimed
	err = WriterClaimed("discovered", "ingest", "timer")
	if err.Code != ErrCodeWriterClaimed {
		t.Errorf("expected code %s, got %s", ErrCodeWriterClaimed, err.Code)
	}
	if err.Details["owner"] != "ingest" {
		t.Error("WriterClaimed should include owner detail")
	}

	// Test DaemonRunning
	err = DaemonRunning(4242)
	if err.Details["pid"] != 4242 {
		t.Error("DaemonRunning should include pid detail")
	}

	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
}
