package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { RootCmd.SetArgs(nil) })

	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out.String(), "insightsbot") {
		t.Fatalf("version output mismatch: %q", out.String())
	}
}

func TestAuthorizeRequiresCredentials(t *testing.T) {
	t.Setenv("INSIGHTS_BOT_TOKEN", "tok")
	t.Setenv("INSIGHTS_CHAT_ID", "42")
	t.Setenv("INSIGHTS_GOOGLE_CREDENTIALS", "")
	t.Setenv("INSIGHTS_GOOGLE_CREDENTIALS_FILE", "")

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs([]string{"authorize"})
	t.Cleanup(func() { RootCmd.SetArgs(nil) })

	err := RootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "INSIGHTS_GOOGLE_CREDENTIALS") {
		t.Fatalf("expected credentials guidance, got: %v", err)
	}
}
