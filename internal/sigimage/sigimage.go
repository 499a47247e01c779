// Package sigimage locates a client's drawn signature in object storage and
// prepares it for embedding into a letter.
package sigimage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/fogleman/gg"
)

// ObjectStore is the subset of the storage client the prober needs.
type ObjectStore interface {
	Exists(ctx context.Context, objectKey string) (bool, error)
	Fetch(ctx context.Context, objectKey string) ([]byte, error)
}

// Prober finds and normalizes signature images.
type Prober struct {
	Store ObjectStore
}

// signature box inside the rendered letter, in CSS pixels
const (
	boxWidth  = 300
	boxHeight = 80
)

// candidateKeys lists the signature objects probed in order. The _2 suffix is
// only consulted when the primary capture is absent.
func candidateKeys(folder string) []string {
	return []string{
		folder + "/Signatures/signature.png",
		folder + "/Signatures/signature_2.png",
	}
}

// Find returns the storage key of the first signature present for the case
// folder, or "" when the client has not signed yet.
func (p *Prober) Find(ctx context.Context, folder string) (string, error) {
	for _, key := range candidateKeys(folder) {
		ok, err := p.Store.Exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("probe signature %s: %w", key, err)
		}
		if ok {
			return key, nil
		}
	}
	return "", nil
}

// Load fetches the signature object and returns it as a PNG data URI,
// normalized onto a white canvas sized for the letter's signature box.
func (p *Prober) Load(ctx context.Context, objectKey string) (string, error) {
	raw, err := p.Store.Fetch(ctx, objectKey)
	if err != nil {
		return "", fmt.Errorf("fetch signature %s: %w", objectKey, err)
	}
	normalized, err := Normalize(raw)
	if err != nil {
		return "", fmt.Errorf("normalize signature %s: %w", objectKey, err)
	}
	return DataURI(normalized), nil
}

// Normalize scales the captured signature to fit the letter's signature box
// and flattens any transparency onto white so it prints cleanly.
func Normalize(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode signature image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("signature image is empty")
	}

	scale := float64(boxWidth) / float64(bounds.Dx())
	if s := float64(boxHeight) / float64(bounds.Dy()); s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}
	w := int(float64(bounds.Dx()) * scale)
	h := int(float64(bounds.Dy()) * scale)

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.Scale(scale, scale)
	dc.DrawImage(src, 0, 0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode signature png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI wraps PNG bytes for direct use in an <img src>.
func DataURI(pngBytes []byte) string {
	var b strings.Builder
	b.WriteString("data:image/png;base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(pngBytes))
	return b.String()
}
