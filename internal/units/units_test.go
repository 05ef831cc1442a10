package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{mb, "1.00 MB"},
		{gb, "1.00 GB"},
		{tb, "1.00 TB"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, FormatBytes(tc.n))
	}
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"500", 500},
		{"500B", 500},
		{"1KB", kb},
		{"1.5MB", int64(1.5 * mb)},
		{"2GB", 2 * gb},
		{"1TB", tb},
		{"  10 mb", 10 * mb},
	}

	for _, tc := range cases {
		got, err := ParseSize(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestParseSizeErrors(t *testing.T) {
	for _, in := range []string{"", "abc", "-5MB"} {
		_, err := ParseSize(in)
		require.Error(t, err)
	}
}
