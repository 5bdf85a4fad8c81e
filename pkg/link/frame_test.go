package link

import (
	"bytes"
	"testing"
)

func TestEncodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		targets [6]int
		want    string
	}{
		{
			name:    "home positions",
			targets: [6]int{512, 512, 512, 956, 800, 430},
			want:    "512,512,512,956,800,430*",
		},
		{
			name:    "all zero",
			targets: [6]int{},
			want:    "0,0,0,0,0,0*",
		},
		{
			name:    "all max",
			targets: [6]int{1023, 1023, 1023, 1023, 1023, 1023},
			want:    "1023,1023,1023,1023,1023,1023*",
		},
		{
			name:    "mixed widths",
			targets: [6]int{1, 22, 333, 4, 55, 666},
			want:    "1,22,333,4,55,666*",
		},
		{
			name:    "single digits",
			targets: [6]int{1, 2, 3, 4, 5, 6},
			want:    "1,2,3,4,5,6*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeFrame(tt.targets)
			if !bytes.Equal(got, []byte(tt.want)) {
				t.Errorf("EncodeFrame(%v) = %q, want %q", tt.targets, got, tt.want)
			}
		})
	}
}

func TestEncodeFrameHasNoNewline(t *testing.T) {
	got := EncodeFrame([6]int{512, 512, 512, 956, 800, 430})
	if bytes.ContainsAny(got, "\r\n") {
		t.Errorf("frame %q contains a line terminator; '*' is the only delimiter", got)
	}
	if got[len(got)-1] != '*' {
		t.Errorf("frame %q does not end in '*'", got)
	}
}

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name   string
		raw    []byte
		want   string
		wantOK bool
	}{
		{name: "plain line", raw: []byte("OK"), want: "OK", wantOK: true},
		{name: "trailing newline", raw: []byte("OK\n"), want: "OK", wantOK: true},
		{name: "carriage return", raw: []byte("READY\r\n"), want: "READY", wantOK: true},
		{name: "surrounding blanks", raw: []byte("  pos set  "), want: "pos set", wantOK: true},
		{name: "empty", raw: nil, wantOK: false},
		{name: "whitespace only", raw: []byte(" \t\r\n"), wantOK: false},
		{name: "invalid utf8", raw: []byte{0xff, 0xfe, 'O', 'K'}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeReply(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("DecodeReply(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("DecodeReply(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
