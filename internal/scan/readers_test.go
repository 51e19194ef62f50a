package scan

import "testing"

func TestReadInt(t *testing.T) {
	buf := []byte{0x12, 0x34, 0x56, 0x78}

	tests := []struct {
		name      string
		size      int
		signed    bool
		bigEndian bool
		want      int64
	}{
		{"uint16 big endian", 2, false, true, 0x1234},
		{"uint16 little endian", 2, false, false, 0x3412},
		{"uint32 big endian", 4, false, true, 0x12345678},
		{"uint32 little endian", 4, false, false, 0x78563412},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readInt(buf, 0, tt.size, tt.signed, tt.bigEndian)
			if got != tt.want {
				t.Errorf("readInt() = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestReadIntSignedNegative(t *testing.T) {
	buf := []byte{0xFE}
	if got := readInt(buf, 0, 1, true, true); got != -2 {
		t.Errorf("readInt() = %d, want -2", got)
	}
}

func TestReadIntShortReadYieldsZero(t *testing.T) {
	buf := []byte{0x01, 0x02}
	if got := readInt(buf, 1, 4, true, true); got != 0 {
		t.Errorf("readInt() past buffer end = %d, want 0", got)
	}
	if got := readInt(buf, -1, 1, true, true); got != 0 {
		t.Errorf("readInt() with negative start = %d, want 0", got)
	}
}

func TestReadIndirect(t *testing.T) {
	buf := []byte{0xFF, 0x01, 0x02, 0x03, 0x04}

	tests := []struct {
		name     string
		pos      int64
		readType byte
		want     int64
	}{
		{"signed byte", 0, 'b', -1},
		{"little endian short", 1, 's', 0x0201},
		{"big endian short", 1, 'S', 0x0102},
		{"little endian long", 1, 'l', 0x04030201},
		{"big endian long", 1, 'L', 0x01020304},
		{"unknown type yields zero", 0, 'z', 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readIndirect(buf, tt.pos, tt.readType)
			if got != tt.want {
				t.Errorf("readIndirect() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderFormat(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		datum    int64
		str      string
		isString bool
		want     string
	}{
		{"no directive is verbatim", "gzip compressed data", 0, "", false, "gzip compressed data"},
		{"decimal directive", "version %d", 3, "", false, "version 3"},
		{"hex directive", "flags %x", 0xFF, "", false, "flags ff"},
		{"char directive", "tag %c", 'A', "", false, "tag A"},
		{"string directive", "name %s", 0, "widget", true, "name widget"},
		{"long modifier normalized", "size %ld", 16, "", false, "size 16"},
		{"literal percent with no verb", "100%%", 0, "", false, "100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderFormat(tt.tmpl, tt.datum, tt.str, tt.isString)
			if got != tt.want {
				t.Errorf("renderFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}
