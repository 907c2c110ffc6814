package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestHandleInterrupts_ParentCancellation(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output)

	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := handler.HandleInterrupts(parent, "Import", true)
	defer stop()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	cancel()
	<-ctx.Done()
	assert.False(t, handler.WasInterrupted(), "canceling the parent is not an interrupt")
}

func TestInterrupt_ShowsMessageOnce(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output)
	handler.operation = "Import"

	handler.interrupt()
	handler.interrupt()

	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, strings.Count(output.String(), "Import interrupted!"))
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		name        string
		operation   string
		expected    []string
		notExpected []string
		keptWork    bool
	}{
		{
			name:      "with kept work",
			operation: "Import",
			keptWork:  true,
			expected: []string{
				"Import interrupted!",
				"Entries saved before the interrupt are kept.",
			},
		},
		{
			name:        "without kept work",
			operation:   "Restore",
			expected:    []string{"Restore interrupted!"},
			notExpected: []string{"Entries saved"},
		},
		{
			name:      "unnamed operation",
			expected:  []string{"Operation interrupted!"},
			operation: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := &InterruptHandler{
				writer:    &output,
				operation: tt.operation,
				keptWork:  tt.keptWork,
			}

			handler.showInterruptMessage()

			outputStr := output.String()
			for _, expected := range tt.expected {
				assert.Contains(t, outputStr, expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, outputStr, notExpected)
			}
		})
	}
}

func TestHandleInterrupts_Stop(t *testing.T) {
	handler := NewInterruptHandler(&bytes.Buffer{})
	ctx, stop := handler.HandleInterrupts(context.Background(), "Import", false)

	stop()
	<-ctx.Done()
	assert.False(t, handler.WasInterrupted())
}
