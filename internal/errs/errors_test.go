package errs

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestConfigErrorMessage(t *testing.T) {
	err := Config("index load", "/tmp/x.json", os.ErrNotExist)
	want := `index load "/tmp/x.json": file does not exist`
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped ErrNotExist")
	}
	noSubject := Configf("discovery", "", "two event classes for %s", "A")
	if noSubject.Error() != "discovery: two event classes for A" {
		t.Fatalf("unexpected: %q", noSubject.Error())
	}
}

func TestIsConfig(t *testing.T) {
	if IsConfig(errors.New("plain")) {
		t.Fatalf("plain error is not a config error")
	}
	wrapped := fmt.Errorf("outer: %w", Configf("wake", "A", "boom"))
	if !IsConfig(wrapped) {
		t.Fatalf("expected wrapped config error to be detected")
	}
}
