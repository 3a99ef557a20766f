package main

import "testing"

func TestParseCommand(t *testing.T) {
	command, err := parseCommand("paste 0 1 mixes%3A%0A-+destCh%3A+0")
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if len(command) != 4 {
		t.Fatalf("expected 4 items, but got: %v", command)
	}
	if command[3] != "mixes:\n- destCh: 0" {
		t.Errorf("unexpected argument: %q", command[3])
	}
	if _, err := parseCommand("set 0 name %zz"); err == nil {
		t.Errorf("expected an error for a bad escape")
	}
}
