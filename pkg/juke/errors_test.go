package juke

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNil(t *testing.T) {
	assert.Equal(t, SeverityIgnored, Classify(nil))
}

func TestClassifyDegraded(t *testing.T) {
	err := Degraded(errors.New("memfd_create failed"))
	assert.Equal(t, SeverityDegraded, Classify(err))
}

func TestClassifyPlainError(t *testing.T) {
	assert.Equal(t, SeverityLogged, Classify(errors.New("transient")))
}

func TestDegradedNilStaysNil(t *testing.T) {
	assert.Nil(t, Degraded(nil))
}
