package corpus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mdcorpus/corpus/pkg/corpus"
)

func TestExtractField_StarFormWinsOverDashAndBold(t *testing.T) {
	t.Parallel()

	body := "* Status: in_progress\n- Status: pending\n**Status:** blocked\n"

	v, ok := corpus.ExtractField(body, "Status")
	assert.True(t, ok)
	assert.Equal(t, "in_progress", v)
}

func TestExtractField_DashFormWinsOverBoldWhenNoStar(t *testing.T) {
	t.Parallel()

	body := "- Status: pending\n**Status:** blocked\n"

	v, ok := corpus.ExtractField(body, "Status")
	assert.True(t, ok)
	assert.Equal(t, "pending", v)
}

func TestExtractField_FallsBackToBoldForm(t *testing.T) {
	t.Parallel()

	body := "Some text.\n\n**Priority:** high\n"

	v, ok := corpus.ExtractField(body, "Priority")
	assert.True(t, ok)
	assert.Equal(t, "high", v)
}

func TestExtractField_MissingKeyReturnsNotOK(t *testing.T) {
	t.Parallel()

	v, ok := corpus.ExtractField("no fields here", "Status")
	assert.False(t, ok)
	assert.Equal(t, "", v)
}

func TestExtractField_KeyMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	body := "* status: completed\n"

	v, ok := corpus.ExtractField(body, "Status")
	assert.True(t, ok)
	assert.Equal(t, "completed", v)
}

func TestParseTask_PopulatesRecognizedFields(t *testing.T) {
	t.Parallel()

	body := "* Status: completed\n* Priority: high\n* Workflow: release\n* Main-Workflow: ship\n"

	task := corpus.ParseTask("my-task", body)
	assert.Equal(t, "my-task", task.Slug)
	assert.Equal(t, corpus.StatusCompleted, task.Status)
	assert.Equal(t, "high", task.Priority)
	assert.Equal(t, "release", task.Workflow)
	assert.Equal(t, "ship", task.MainWorkflow)
}

func TestParseTask_LeavesUnrecognizedFieldsZeroValued(t *testing.T) {
	t.Parallel()

	task := corpus.ParseTask("bare-task", "no metadata lines\n")
	assert.Equal(t, "bare-task", task.Slug)
	assert.Equal(t, corpus.TaskStatus(""), task.Status)
	assert.Equal(t, "", task.Priority)
}
