package corpus_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mdcorpus/corpus/pkg/corpus"
)

func TestError_FormatsWithPathAndSlugSuffix(t *testing.T) {
	t.Parallel()

	err := &corpus.Error{
		Code: corpus.CodeSectionNotFound,
		Path: "/specs/a.md",
		Slug: "overview",
		Err:  errors.New("section not found"),
	}

	assert.Equal(t, "section not found (doc_path=/specs/a.md slug=overview)", err.Error())
}

func TestError_FormatsWithNoContextSuffix(t *testing.T) {
	t.Parallel()

	err := &corpus.Error{Code: corpus.CodeIOError, Err: errors.New("boom")}
	assert.Equal(t, "boom", err.Error())
}

func TestError_IsMatchesOnCodeAlone(t *testing.T) {
	t.Parallel()

	err := &corpus.Error{Code: corpus.CodeDocNotFound, Path: "/a.md", Err: errors.New("x")}
	assert.True(t, errors.Is(err, &corpus.Error{Code: corpus.CodeDocNotFound}))
	assert.False(t, errors.Is(err, &corpus.Error{Code: corpus.CodeSectionNotFound}))
}

func TestError_UnwrapReturnsUnderlyingCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk exploded")
	err := &corpus.Error{Code: corpus.CodeDiskFull, Err: cause}
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestError_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var err *corpus.Error
	assert.Equal(t, "", err.Error())
	assert.Nil(t, err.Unwrap())
}
