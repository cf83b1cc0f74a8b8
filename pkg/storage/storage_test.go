package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	now := time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)

	assert.Equal(t,
		"events/2026/03/deadbeef.json",
		EventKey(now, "deadbeef", "json"))
	assert.Equal(t,
		"events/2026/03/deadbeef.zip",
		EventKey(now, "deadbeef", "zip"))
	assert.Equal(t,
		"media/2026/03/deadbeef/cafef00d.jpg",
		MediaKey(now, "deadbeef", "cafef00d", "jpg"))
}
