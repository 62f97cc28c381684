package command

import (
	"context"
	"testing"
	"time"
)

func TestValidateGitRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple branch", "main", false},
		{"nested branch", "feature/auth", false},
		{"remote tracking", "origin/main", false},
		{"sha", "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0", false},
		{"ancestry suffix", "main~3", false},
		{"parent suffix", "a1b2c3d^", false},
		{"dotted tag", "v1.2.3", false},
		{"empty", "", true},
		{"leading dash", "-rf", true},
		{"shell metachars", "main;rm", true},
		{"spaces", "my branch", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateGitRef(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateGitRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRemoteName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"origin", "origin", false},
		{"upstream", "upstream", false},
		{"with dots", "my.remote", false},
		{"empty", "", true},
		{"leading dash", "-origin", true},
		{"slash", "or/igin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRemoteName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRemoteName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePathspec(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain file", "README.md", false},
		{"nested path", "src/app/main.go", false},
		{"empty", "", true},
		{"leading dash", "--all", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePathspec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePathspec(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	sb := NewSafeBuilder()

	t.Run("empty command name", func(t *testing.T) {
		_, err := sb.Build(context.Background(), "")
		if err == nil {
			t.Error("expected error for empty command name")
		}
	})

	t.Run("valid command", func(t *testing.T) {
		cmd, err := sb.Build(context.Background(), "git", "status")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.timeout != DefaultTimeout {
			t.Errorf("expected default timeout %v, got %v", DefaultTimeout, cmd.timeout)
		}
	})

	t.Run("timeout capped at max", func(t *testing.T) {
		cmd, err := sb.Build(context.Background(), "git", "fetch")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cmd = cmd.WithTimeout(30 * time.Minute)
		if cmd.timeout != MaxTimeout {
			t.Errorf("expected timeout capped at %v, got %v", MaxTimeout, cmd.timeout)
		}
	})
}

func TestRun(t *testing.T) {
	sb := NewSafeBuilder()

	t.Run("captures stdout", func(t *testing.T) {
		cmd, err := sb.Build(context.Background(), "echo", "hello")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result, err := cmd.Run()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ExitCode != 0 {
			t.Errorf("expected exit code 0, got %d", result.ExitCode)
		}
		if result.Stdout != "hello\n" {
			t.Errorf("expected stdout %q, got %q", "hello\n", result.Stdout)
		}
	})

	t.Run("nonzero exit is not an error", func(t *testing.T) {
		cmd, err := sb.Build(context.Background(), "false")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result, err := cmd.Run()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ExitCode == 0 {
			t.Error("expected nonzero exit code")
		}
	})

	t.Run("missing binary is an error", func(t *testing.T) {
		cmd, err := sb.Build(context.Background(), "definitely-not-a-binary-xyz")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := cmd.Run(); err == nil {
			t.Error("expected spawn error for missing binary")
		}
	})
}
