package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUTCNow(t *testing.T) {
	before := time.Now()
	now := utcNow()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, before, now, time.Minute)
}
