package main

import (
	"testing"

	"github.com/Dan9191/finance-ledger/internal/config"
	"github.com/Dan9191/finance-ledger/internal/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, newLogger("").GetLevel())
	assert.Equal(t, logrus.InfoLevel, newLogger("loud").GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, newLogger("info").Formatter)
}

func TestNewPublisherWithoutBroker(t *testing.T) {
	pub, closePublisher := newPublisher(&config.Config{}, newLogger("error"))
	defer closePublisher()
	assert.Equal(t, events.Noop{}, pub)
}
