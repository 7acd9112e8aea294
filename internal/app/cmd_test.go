package app

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"empty defaults to serve", []string{}, CommandServe},
		{"serve", []string{"serve"}, CommandServe},
		{"worker", []string{"worker"}, CommandWorker},
		{"migrate", []string{"migrate", "down"}, CommandMigrate},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck},
		{"unknown defaults to serve", []string{"unknown"}, CommandServe},
		{"extra args ignored", []string{"worker", "--flag", "value"}, CommandWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseMigrateArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    MigrateOptions
		wantErr bool
	}{
		{"no args applies all", nil, MigrateOptions{Action: MigrateUp}, false},
		{"up", []string{"up"}, MigrateOptions{Action: MigrateUp}, false},
		{"down defaults to one step", []string{"down"}, MigrateOptions{Action: MigrateDown, Steps: 1}, false},
		{"down with steps", []string{"down", "3"}, MigrateOptions{Action: MigrateDown, Steps: 3}, false},
		{"version", []string{"version"}, MigrateOptions{Action: MigrateVersion}, false},
		{"down with zero steps", []string{"down", "0"}, MigrateOptions{}, true},
		{"down with non-numeric steps", []string{"down", "all"}, MigrateOptions{}, true},
		{"unknown action", []string{"force"}, MigrateOptions{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMigrateArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMigrateArgs(%v) expected error, got %+v", tt.args, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMigrateArgs(%v) unexpected error: %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("ParseMigrateArgs(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}
