package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	ferrors "github.com/fathom-search/fathom/internal/errors"
)

func TestReportError_CodedRetryableError(t *testing.T) {
	var buf bytes.Buffer

	// Given a coded, transient failure
	reportError(&buf, ferrors.New(ferrors.ErrCodeNetworkUnavailable, "embedder unreachable", nil))

	// Then the output carries the code, the message and a retry hint
	out := buf.String()
	assert.Contains(t, out, "ERR_302_NETWORK_UNAVAILABLE")
	assert.Contains(t, out, "embedder unreachable")
	assert.Contains(t, out, "may succeed if retried")
}

func TestReportError_PlainError(t *testing.T) {
	var buf bytes.Buffer

	reportError(&buf, errors.New("something broke"))

	assert.Equal(t, "Error: something broke\n", buf.String())
}
