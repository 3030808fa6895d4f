package stringsx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClip_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"equal", "hello", 5, "hello"},
		{"clip", "hello", 3, "hel"},
		{"zero", "hello", 0, ""},
		{"neg", "hello", -1, ""},
		{"empty", "", 3, ""},
		{"multibyte", "héllo ❤️", 2, "hé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clip(tt.in, tt.max))
		})
	}
}

func TestNormalize_And_IsEmpty(t *testing.T) {
	require.Equal(t, "hello", Normalize("  HeLLo  "))
	require.True(t, IsEmpty("   \n\t  "))
	require.False(t, IsEmpty(" x "))
}

func TestLen_And_Words(t *testing.T) {
	require.Equal(t, 4, Len("Jéss"))
	require.Equal(t, 0, Words("  \n "))
	require.Equal(t, 5, Words("the time we got\tlost"))
}
