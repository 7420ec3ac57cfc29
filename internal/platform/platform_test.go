package platform

import (
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"sidedock/internal/types"
)

func TestParseAccelerator(t *testing.T) {
	tests := []struct {
		in      string
		want    Accelerator
		wantErr bool
	}{
		{"Alt+Space", Accelerator{Modifiers: modAlt, Key: 0x20}, false},
		{"ctrl + shift + k", Accelerator{Modifiers: modControl | modShift, Key: 0x4B}, false},
		{"CommandOrControl+1", Accelerator{Modifiers: modControl, Key: 0x31}, false},
		{"Win+F12", Accelerator{Modifiers: modWin, Key: 0x7B}, false},
		{"F1", Accelerator{Key: 0x70}, false},
		{"Alt+`", Accelerator{Modifiers: modAlt, Key: 0xC0}, false},
		{"Alt+Esc", Accelerator{Modifiers: modAlt, Key: 0x1B}, false},
		{"Alt", Accelerator{}, true},
		{"Alt+A+B", Accelerator{}, true},
		{"Alt++", Accelerator{}, true},
		{"Alt+F25", Accelerator{}, true},
		{"Alt+F01", Accelerator{}, true},
		{"Hyper+K", Accelerator{}, true},
		{"", Accelerator{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAccelerator(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAccelerator(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAccelerator(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBGRAToImage_FlipsAndSwapsChannels(t *testing.T) {
	// 1x2 bottom-up: first row in memory is the bottom pixel
	data := []byte{
		0x01, 0x02, 0x03, 0xff, // bottom: B G R A
		0x10, 0x20, 0x30, 0x80, // top
	}

	img := bgraToImage(data, 1, 2)
	if img == nil {
		t.Fatal("Expected image")
	}

	top := img.RGBAAt(0, 0)
	if top.R != 0x30 || top.G != 0x20 || top.B != 0x10 || top.A != 0x80 {
		t.Errorf("Unexpected top pixel %+v", top)
	}
	bottom := img.RGBAAt(0, 1)
	if bottom.R != 0x03 || bottom.G != 0x02 || bottom.B != 0x01 || bottom.A != 0xff {
		t.Errorf("Unexpected bottom pixel %+v", bottom)
	}
}

func TestBGRAToImage_NoAlphaBecomesOpaque(t *testing.T) {
	data := make([]byte, 2*2*4)
	img := bgraToImage(data, 2, 2)

	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			t.Fatalf("Expected opaque pixel at %d, got %d", i, img.Pix[i])
		}
	}
}

func TestBGRAToImage_RejectsShortBuffer(t *testing.T) {
	if bgraToImage(make([]byte, 3), 1, 1) != nil {
		t.Error("Expected nil for short buffer")
	}
	if bgraToImage(nil, 0, 0) != nil {
		t.Error("Expected nil for empty size")
	}
}

func TestPNGDataURL(t *testing.T) {
	img := bgraToImage([]byte{0, 0, 0xff, 0xff}, 1, 1)

	url, err := pngDataURL(img)
	if err != nil {
		t.Fatalf("pngDataURL() error = %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("Unexpected prefix: %q", url)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	decoded, err := png.Decode(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if r, _, _, _ := decoded.At(0, 0).RGBA(); r>>8 != 0xff {
		t.Errorf("Expected red pixel, got r=%d", r>>8)
	}
}

func TestContextMenuMapping(t *testing.T) {
	if menuLabel(true) != "Unpin from Top" || menuLabel(false) != "Pin to Top" {
		t.Error("Unexpected pin labels")
	}

	tests := []struct {
		cmd  uintptr
		want types.ContextAction
	}{
		{menuTogglePin, types.ActionTogglePin},
		{menuOpenFolder, types.ActionOpenFolder},
		{0, types.ActionNone},
		{99, types.ActionNone},
	}
	for _, tt := range tests {
		if got := actionForCommand(tt.cmd); got != tt.want {
			t.Errorf("actionForCommand(%d) = %s, want %s", tt.cmd, got, tt.want)
		}
	}
}
