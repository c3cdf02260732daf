package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestFormatCommitMessage(t *testing.T) {
	tests := []struct {
		action, subject, details, want string
	}{
		{"generate", "oai-functions", "", "fleetgen: generate oai-functions"},
		{"generate", "oai-functions", "15 functions", "fleetgen: generate oai-functions (15 functions)"},
	}
	for _, tt := range tests {
		if got := FormatCommitMessage(tt.action, tt.subject, tt.details); got != tt.want {
			t.Errorf("FormatCommitMessage(%q, %q, %q) = %q, want %q", tt.action, tt.subject, tt.details, got, tt.want)
		}
	}
}

func TestHandleGitWorkflowNoRepo(t *testing.T) {
	result, err := HandleGitWorkflow(WorkflowOpts{
		OutputDir: t.TempDir(),
		Paths:     []string{"kubernetes/ingress.yaml"},
		Action:    "generate",
		Subject:   "oai-functions",
		GitMode:   "auto",
	})
	if err != nil {
		t.Fatalf("expected no error for missing repo, got: %v", err)
	}
	if result != NoRepo {
		t.Errorf("result = %v, want %v", result, NoRepo)
	}
}

func TestHandleGitWorkflowModeOff(t *testing.T) {
	for _, mode := range []string{"", "off", "bogus"} {
		result, err := HandleGitWorkflow(WorkflowOpts{OutputDir: "/nonexistent", GitMode: mode})
		if err != nil {
			t.Fatalf("mode %q: unexpected error: %v", mode, err)
		}
		if result != Skipped {
			t.Errorf("mode %q: result = %v, want %v", mode, result, Skipped)
		}
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "fleetgen@example.com"},
		{"config", "user.name", "fleetgen"},
		{"config", "commit.gpgsign", "false"},
	} {
		if _, err := runGit(dir, args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	return dir
}

func TestHandleGitWorkflowGenerateCommitsOnce(t *testing.T) {
	dir := initRepo(t)
	out := filepath.Join(dir, "deploy")
	path := "kubernetes/namespace.yaml"
	if err := os.MkdirAll(filepath.Join(out, "kubernetes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(out, path), []byte("kind: Namespace\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := WorkflowOpts{
		OutputDir: out,
		Paths:     []string{path},
		Action:    "generate",
		Subject:   "oai-functions",
		GitMode:   "generate",
	}
	result, err := HandleGitWorkflow(opts)
	if err != nil {
		t.Fatalf("HandleGitWorkflow: %v", err)
	}
	if result != CommittedLocal {
		t.Errorf("first run result = %v, want %v", result, CommittedLocal)
	}

	logOut, err := runGit(dir, "log", "--format=%s")
	if err != nil {
		t.Fatal(err)
	}
	if want := "fleetgen: generate oai-functions\n"; logOut != want {
		t.Errorf("git log = %q, want %q", logOut, want)
	}

	result, err = HandleGitWorkflow(opts)
	if err != nil {
		t.Fatalf("second HandleGitWorkflow: %v", err)
	}
	if result != NoChanges {
		t.Errorf("second run result = %v, want %v", result, NoChanges)
	}
}

func TestHandleGitWorkflowPromptNonInteractiveStages(t *testing.T) {
	dir := initRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "configmap.yaml"), []byte("kind: ConfigMap\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := HandleGitWorkflow(WorkflowOpts{
		OutputDir: dir,
		Paths:     []string{"configmap.yaml"},
		GitMode:   "prompt",
	})
	if err != nil {
		t.Fatalf("HandleGitWorkflow: %v", err)
	}
	if result != Staged {
		t.Errorf("result = %v, want %v", result, Staged)
	}
}
