package main

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
		restLen int
	}{
		{"no args defaults to serve", nil, "serve", 0},
		{"subcommand extracted", []string{"summary"}, "summary", 0},
		{"subcommand with flags", []string{"serve", "-data", "/tmp/x"}, "serve", 2},
		{"flag first keeps default", []string{"-data", "/tmp/x"}, "serve", 2},
		{"empty first arg keeps default", []string{""}, "serve", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, rest := parseCommand(tt.args)
			if command != tt.command {
				t.Errorf("expected command %q, got %q", tt.command, command)
			}
			if len(rest) != tt.restLen {
				t.Errorf("expected %d remaining args, got %d", tt.restLen, len(rest))
			}
		})
	}
}
