package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalReply(t *testing.T) {
	assert.Equal(t, "done", finalReply("done", 0))
	assert.Equal(t, "done", finalReply("done", 2))
	assert.Equal(t, "", finalReply("", 0))

	// 轮次用尽仍挂着工具调用：给出可读提示而不是空回复
	out := finalReply("", 1)
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "couldn't complete")
}
