package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterMessages(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Success("index built")
	w.Warning("falling back to lexical encoder")
	w.Errorf("failed after %d attempts", 3)
	w.Info("2 result(s)")
	w.Plain(" 1. [0.630] apis  创建用户")

	out := buf.String()
	assert.Contains(t, out, "✅ index built")
	assert.Contains(t, out, "⚠️  falling back to lexical encoder")
	assert.Contains(t, out, "❌ failed after 3 attempts")
	assert.Contains(t, out, "2 result(s)")
	assert.Contains(t, out, "创建用户")
}

func TestStatusWithoutIconIndents(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Status("", "details")
	assert.Equal(t, "   details\n", buf.String())
}
