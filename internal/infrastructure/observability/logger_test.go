package observability

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitLogger_LevelParsing(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	InitLogger("ipd-admission-engine", "production", "debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	InitLogger("ipd-admission-engine", "production", "not-a-level")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
