package render

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

func TestRenderInitialPosition(t *testing.T) {
	r := NewSVGBoardRenderer()
	game := nchess.NewGame()

	data, err := r.RenderPNG(context.Background(), game.Position().Board(), RenderOptions{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	want := boardSize + margin*2
	if img.Bounds().Dx() != want || img.Bounds().Dy() != want {
		t.Fatalf("bounds = %v, want %dx%d", img.Bounds(), want, want)
	}
}

func TestRenderWithHighlight(t *testing.T) {
	r := NewSVGBoardRenderer()
	game := nchess.NewGame()
	hl := HighlightFromUCI("e2e4")
	if hl == nil {
		t.Fatalf("highlight not parsed")
	}
	if _, err := r.RenderPNG(context.Background(), game.Position().Board(), RenderOptions{Highlight: hl}); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
}

func TestRenderNilBoard(t *testing.T) {
	r := NewSVGBoardRenderer()
	if _, err := r.RenderPNG(context.Background(), nil, RenderOptions{}); err == nil {
		t.Fatalf("expected error for nil board")
	}
}

func TestHighlightFromUCI(t *testing.T) {
	if hl := HighlightFromUCI("e7e8q"); hl == nil {
		t.Fatalf("promotion move not parsed")
	}
	for _, bad := range []string{"", "e2", "z9z8", "0000"} {
		if hl := HighlightFromUCI(bad); hl != nil {
			t.Fatalf("parsed %q unexpectedly", bad)
		}
	}
}
