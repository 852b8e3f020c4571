package corpus

import (
	"regexp"
	"strings"
)

// Task metadata line forms, in precedence order per spec.md §3: "*" wins
// over "-" wins over "**…**" when the same key appears in more than one
// form within a task's body.
var (
	starField   = regexp.MustCompile(`(?m)^\*\s+([^:]+):\s*(.*)$`)
	dashField   = regexp.MustCompile(`(?m)^-\s+([^:]+):\s*(.*)$`)
	boldField   = regexp.MustCompile(`(?m)^\*\*([^*:]+):\*\*\s*(.*)$`)
)

// ExtractField returns key's value from a task body per spec.md §8 scenario
// 6: each of the three equivalent line forms is scanned, and when more than
// one supplies a value for key, "* Key: value" wins over "- Key: value"
// wins over "**Key:** value". ok is false if no form supplies key.
func ExtractField(body, key string) (value string, ok bool) {
	if v, found := scanField(starField, body, key); found {
		return v, true
	}

	if v, found := scanField(dashField, body, key); found {
		return v, true
	}

	if v, found := scanField(boldField, body, key); found {
		return v, true
	}

	return "", false
}

func scanField(pattern *regexp.Regexp, body, key string) (string, bool) {
	for _, m := range pattern.FindAllStringSubmatch(body, -1) {
		if strings.EqualFold(strings.TrimSpace(m[1]), key) {
			return strings.TrimSpace(m[2]), true
		}
	}

	return "", false
}

// TaskStatus is the closed set of recognized values for the "Status" field.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
)

// Task is a convenience projection of a task section's recognized metadata
// fields, built from its body via [ExtractField]. Unrecognized fields are
// not modeled here — callers needing them call [ExtractField] directly.
type Task struct {
	Slug          string
	Status        TaskStatus
	Priority      string
	Workflow      string
	MainWorkflow  string
}

// ParseTask extracts the recognized metadata fields from a task section's
// body.
func ParseTask(slug, body string) Task {
	t := Task{Slug: slug}

	if v, ok := ExtractField(body, "Status"); ok {
		t.Status = TaskStatus(v)
	}

	if v, ok := ExtractField(body, "Priority"); ok {
		t.Priority = v
	}

	if v, ok := ExtractField(body, "Workflow"); ok {
		t.Workflow = v
	}

	if v, ok := ExtractField(body, "Main-Workflow"); ok {
		t.MainWorkflow = v
	}

	return t
}
