// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnsupportedImage is returned for payloads that are not a supported image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

// SupportedImageTypes lists the MIME types accepted as diagram input.
var SupportedImageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
}

// ImagePayload is a decoded image and its MIME type.
type ImagePayload struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
	Name     string `json:"name,omitempty"`
}

// NewImagePayload sniffs the MIME type of data and validates it.
func NewImagePayload(name string, data []byte) (*ImagePayload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	mime := DetectImageType(data)
	if !IsSupportedImageType(mime) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &ImagePayload{MIMEType: mime, Data: buf, Name: name}, nil
}

// ParseDataURL decodes a "data:<mime>;base64,<payload>" string.
// A bare base64 string is accepted and its type is sniffed.
func ParseDataURL(s string) (*ImagePayload, error) {
	s = strings.TrimSpace(s)
	mime := ""
	payload := s
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrUnsupportedImage)
		}
		header := s[len("data:"):comma]
		payload = s[comma+1:]
		if !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64", ErrUnsupportedImage)
		}
		mime = strings.TrimSuffix(header, ";base64")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img, err := NewImagePayload("", data)
	if err != nil {
		return nil, err
	}
	if mime != "" {
		img.MIMEType = mime
	}
	return img, nil
}

// DataURL encodes the payload as a data URL.
func (p *ImagePayload) DataURL() string {
	return "data:" + p.MIMEType + ";base64," + p.Base64()
}

// Base64 returns the standard base64 encoding of the raw bytes.
func (p *ImagePayload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// Size returns the payload length in bytes.
func (p *ImagePayload) Size() int {
	return len(p.Data)
}

// Label is a short human description used in place of a preview.
func (p *ImagePayload) Label() string {
	name := p.Name
	if name == "" {
		name = "image"
	}
	return fmt.Sprintf("%s (%s, %s)", name, p.MIMEType, FormatBytes(len(p.Data)))
}

// Clone returns a copy that shares no memory with p.
func (p ImagePayload) Clone() ImagePayload {
	out := p
	if p.Data != nil {
		out.Data = make([]byte, len(p.Data))
		copy(out.Data, p.Data)
	}
	return out
}

// DetectImageType sniffs the MIME type from the leading bytes.
func DetectImageType(data []byte) string {
	return http.DetectContentType(data)
}

// IsSupportedImageType reports whether mime is accepted as input.
func IsSupportedImageType(mime string) bool {
	for _, t := range SupportedImageTypes {
		if t == mime {
			return true
		}
	}
	return false
}

// FormatBytes formats a byte count as B, KB or MB.
func FormatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
