package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhotoETag(t *testing.T) {
	t.Run("is stable for the same content", func(t *testing.T) {
		assert.Equal(t, PhotoETag([]byte("soup")), PhotoETag([]byte("soup")))
	})

	t.Run("differs for different content", func(t *testing.T) {
		assert.NotEqual(t, PhotoETag([]byte("soup")), PhotoETag([]byte("bread")))
	})

	t.Run("is a quoted lowercase sha256", func(t *testing.T) {
		etag := PhotoETag([]byte("test"))
		assert.Len(t, etag, 66)
		assert.True(t, strings.HasPrefix(etag, `"`) && strings.HasSuffix(etag, `"`))
		assert.Equal(t, strings.ToLower(etag), etag)
	})
}

func TestETagMatches(t *testing.T) {
	etag := PhotoETag([]byte("soup"))

	tests := []struct {
		name        string
		ifNoneMatch string
		expected    bool
	}{
		{"exact", etag, true},
		{"weak", "W/" + etag, true},
		{"in list", `"other", ` + etag, true},
		{"wildcard", "*", true},
		{"different", `"other"`, false},
		{"empty", "", false},
		{"unquoted", strings.Trim(etag, `"`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ETagMatches(tt.ifNoneMatch, etag))
		})
	}
}
