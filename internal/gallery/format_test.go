package gallery

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{-5, "0 Bytes"},
		{500, "500 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1000000, "976.56 KB"},
		{1048576, "1 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3072 GB"},
	}

	for _, tc := range tests {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatMB(t *testing.T) {
	if got := FormatMB(12.346); got != "12.35 MB" {
		t.Errorf("FormatMB(12.346) = %q", got)
	}
	if got := FormatMB(0); got != "0 MB" {
		t.Errorf("FormatMB(0) = %q", got)
	}
}
