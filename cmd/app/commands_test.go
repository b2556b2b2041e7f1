package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range getCommands("test") {
		names = append(names, cmd.Name)
		assert.NotNil(t, cmd.Action, cmd.Name)
		assert.NotEmpty(t, cmd.Usage, cmd.Name)
	}

	assert.Equal(t, []string{
		"server",
		"migrate",
		"rotate-master-key",
		"master-key-status",
		"derive-key",
		"encrypt-file",
		"decrypt-file",
		"hash-password",
		"verify-password",
	}, names)
}
