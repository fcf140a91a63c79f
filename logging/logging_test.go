package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	saved := DefaultLogger.GetLevel()
	defer DefaultLogger.SetLevel(saved)

	require.NoError(t, SetLogLevel("debug"))
	require.Equal(t, logrus.DebugLevel, DefaultLogger.GetLevel())

	require.Error(t, SetLogLevel("chatty"))
	require.Equal(t, logrus.DebugLevel, DefaultLogger.GetLevel())
}

func TestDefaultLevel(t *testing.T) {
	require.Equal(t, logrus.WarnLevel, initializeDefaultLogger().GetLevel())
}
