package settlement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalReplySchema_KeyFromTokens(t *testing.T) {
	tokens := strings.Fields("B 0001 X 6222000011112222 张三 1 0150000 M 0007 R")

	key, ok := LocalReplySchema.KeyFromTokens(tokens)

	require.True(t, ok)
	assert.Equal(t, IdentityKey{"张三", "6222000011112222", "150000", "0007"}, key)
	assert.Equal(t, "0007", LocalReplySchema.Remark(key))
}

func TestKeyFromTokens_WrongArity(t *testing.T) {
	_, ok := LocalReplySchema.KeyFromTokens(strings.Fields("A B C"))
	assert.False(t, ok)

	_, ok = OtherReplySchema.KeyFromTokens(strings.Fields("1 2 3 4 5 6 7 8 9 10 11"))
	assert.False(t, ok)
}

func TestOtherReplySchema_TextAndRowAgree(t *testing.T) {
	tokens := strings.Fields("T00201 0001 X104100000123 6222000011112222 某公司 1 3160 AG2024001 0012 R")
	row := []string{" 某公司 ", "6222000011112222", "1", "104100000123", "00201", "AG2024001", "", "31.60", "0012", "31.60", "全部成功"}

	textKey, ok := OtherReplySchema.KeyFromTokens(tokens)
	require.True(t, ok)

	rowKey, flag, err := OtherReplySchema.KeyFromRow(row)
	require.NoError(t, err)

	assert.Equal(t, textKey.ID(), rowKey.ID())
	assert.Equal(t, "全部成功", flag)
	assert.Equal(t, "0012", OtherReplySchema.Remark(rowKey))
}

func TestKeyFromRow_Errors(t *testing.T) {
	t.Run("short row", func(t *testing.T) {
		_, _, err := LocalReplySchema.KeyFromRow([]string{"a", "b"})
		assert.Error(t, err)
	})

	t.Run("bad amount", func(t *testing.T) {
		_, _, err := LocalReplySchema.KeyFromRow([]string{"a", "b", "n/a", "0001", "", "全部成功"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "column 3")
	})
}

func TestIdentityKey_Less(t *testing.T) {
	a := IdentityKey{"张三", "1", "100", "0001"}
	b := IdentityKey{"张三", "2", "100", "0001"}
	c := IdentityKey{"张三", "1", "200", "0001"}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, a.Less(c), "ties on the first two fields fall back to the full tuple")
	assert.False(t, a.Less(a))
}

func TestDispositionCode(t *testing.T) {
	assert.Equal(t, CodeSuccess, DispositionCode("全部成功", DefaultSuccessFlag))
	assert.Equal(t, CodeFailure, DispositionCode("部分成功", DefaultSuccessFlag))
	assert.Equal(t, CodeFailure, DispositionCode("", DefaultSuccessFlag))
}
