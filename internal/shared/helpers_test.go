package shared

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePipName(t *testing.T) {
	assert.Equal(t, "streamlit", NormalizePipName("Streamlit"))
	assert.Equal(t, "typing-extensions", NormalizePipName(" typing_extensions "))
	assert.Equal(t, "zope-interface", NormalizePipName("zope.interface"))
	assert.Equal(t, "foo-bar", NormalizePipName("foo__bar"))
	assert.Equal(t, "foo-bar", NormalizePipName("Foo.-_Bar"))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0123456789ab", ShortID("sha256:0123456789abcdef"))
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestCleanRel(t *testing.T) {
	assert.Equal(t, ".", CleanRel(""))
	assert.Equal(t, ".", CleanRel("./"))
	assert.Equal(t, "deps/requirements.txt", CleanRel("./deps//requirements.txt"))
	assert.Equal(t, "main.py", CleanRel("main.py"))
}

func TestErrorMessage(t *testing.T) {
	err := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg("entry file not found: main.py").
		WithCause(errors.New("stat main.py"))
	assert.Equal(t, "entry file not found: main.py", ErrorMessage(err))
	assert.Equal(t, "plain", ErrorMessage(errors.New("plain")))
}
