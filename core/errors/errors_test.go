package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Resource: "table", ID: "apples"}
	if got, want := err.Error(), "table not found: apples"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should unwrap to ErrNotFound")
	}

	err = &NotFoundError{Resource: "index"}
	if got, want := err.Error(), "index not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNotFoundErrorWithUnderlying(t *testing.T) {
	inner := errors.New("catalog scan failed")
	err := &NotFoundError{Resource: "table", ID: "t", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("should unwrap to underlying error")
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{Format: "SQL", Message: "unexpected token"}
	if got, want := err.Error(), "failed to parse SQL: unexpected token"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should unwrap to ErrInvalidInput")
	}
}

func TestCorruptError(t *testing.T) {
	err := &CorruptError{Page: 3, Detail: "invalid page type"}
	if got, want := err.Error(), "corrupt database: page 3: invalid page type"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Error("CorruptError should unwrap to ErrCorrupt")
	}

	err = &CorruptError{Detail: "short file"}
	if got, want := err.Error(), "corrupt database: short file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCorruptErrorAs(t *testing.T) {
	var target *CorruptError
	err := fmt.Errorf("read page: %w", &CorruptError{Page: 7, Detail: "truncated cell"})
	if !errors.As(err, &target) {
		t.Fatal("errors.As should find CorruptError in chain")
	}
	if target.Page != 7 {
		t.Errorf("Page = %d, want 7", target.Page)
	}
}

func TestIOError(t *testing.T) {
	inner := errors.New("permission denied")
	err := &IOError{Operation: "open", Path: "/tmp/x.db", Err: inner}
	if got, want := err.Error(), "failed to open /tmp/x.db: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("IOError should unwrap to underlying error")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	inner := errors.New("boom")
	err := Wrap(inner, "reading header")
	if got, want := err.Error(), "reading header: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("wrapped error should match inner")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "page %d", 4) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	inner := ErrCorrupt
	err := Wrapf(inner, "page %d", 4)
	if got, want := err.Error(), "page 4: database file is corrupt"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrCorrupt) {
		t.Error("Is should report ErrCorrupt")
	}
}
