package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{name: "debug", level: "debug", wantDebug: true, wantInfo: true, wantWarn: true},
		{name: "default", level: "", wantInfo: true, wantWarn: true},
		{name: "warn", level: "WARN", wantWarn: true},
		{name: "error", level: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewConsoleLogger(&buf, tt.level)

			l.Debugf("debug %d", 1)
			l.Infof("info %d", 2)
			l.Warnf("warn %d", 3)
			l.Errorf("error %d", 4)

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug 1"))
			assert.Equal(t, tt.wantInfo, strings.Contains(out, "info 2"))
			assert.Equal(t, tt.wantWarn, strings.Contains(out, "[WARNING] warn 3"))
			assert.Contains(t, out, "[ERROR]   error 4")
		})
	}
}

func TestConsoleLogger_NilWriter(t *testing.T) {
	l := NewConsoleLogger(nil, "debug")
	assert.NotPanics(t, func() {
		l.Warnf("dropped")
	})

	var nilLogger *ConsoleLogger
	assert.NotPanics(t, func() {
		nilLogger.Infof("dropped")
	})
}

func TestConsoleLogger_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "info")
	l.Warnf("plain")

	assert.Equal(t, "[WARNING] plain\n", buf.String())
}

func TestConsoleLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Infof("line %d", i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, strings.Count(buf.String(), "\n"))
}
