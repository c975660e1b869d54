package errors

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeNotFound struct{}

func (fakeNotFound) Error() string  { return "boom: not there" }
func (fakeNotFound) NotFound() bool { return true }

func TestIsNotFoundRecognizesTypedAndStringErrors(t *testing.T) {
	assert.True(t, IsNotFound(fakeNotFound{}))
	assert.True(t, IsNotFound(stderrors.New("ResourceNotFoundException: nope")))
	assert.False(t, IsNotFound(stderrors.New("access denied")))
	assert.False(t, IsNotFound(nil))
}

func TestExitCodeForKnownTypes(t *testing.T) {
	assert.Equal(t, TimeoutExitCode, ExitCodeFor(&StateTimeout{Entity: "fn", Condition: "ACTIVE"}))
	assert.Equal(t, ProviderExitCode, ExitCodeFor(&ProviderError{Entity: "fn", Operation: "create", Err: stderrors.New("x")}))
	assert.Equal(t, DefaultExitCode, ExitCodeFor(stderrors.New("unclassified")))
}

func TestTextForErrorRendersTemplate(t *testing.T) {
	var buf bytes.Buffer
	text, ok := textForError(&StateTimeout{Entity: "svc_worker_dev", Condition: "ACTIVE"})
	assert.True(t, ok)
	assert.Contains(t, text, "svc_worker_dev")
	assert.Contains(t, text, "ACTIVE")
	buf.WriteString(text) // exercise as an io.Writer consumer would
	assert.NotEmpty(t, buf.String())
}
