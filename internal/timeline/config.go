package timeline

import "cutline/internal/media"

// Transform is the visual placement shared by video, image, and text configs.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
}

// DefaultTransform returns the identity placement.
func DefaultTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Config is the tagged union of per-media-type item settings. Capability
// checks are exhaustive switches on the concrete types, not duck typing.
type Config interface {
	Kind() media.Type
	Clone() Config
}

// VideoConfig styles a video clip placement.
type VideoConfig struct {
	Transform Transform `json:"transform"`
	Opacity   float64   `json:"opacity"`
	ZIndex    int       `json:"zIndex"`
	Volume    float64   `json:"volume"`
	Muted     bool      `json:"muted"`
}

func (c VideoConfig) Kind() media.Type { return media.TypeVideo }
func (c VideoConfig) Clone() Config    { return c }

// ImageConfig styles a still-image placement.
type ImageConfig struct {
	Transform Transform `json:"transform"`
	Opacity   float64   `json:"opacity"`
	ZIndex    int       `json:"zIndex"`
}

func (c ImageConfig) Kind() media.Type { return media.TypeImage }
func (c ImageConfig) Clone() Config    { return c }

// AudioConfig styles an audio clip placement.
type AudioConfig struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

func (c AudioConfig) Kind() media.Type { return media.TypeAudio }
func (c AudioConfig) Clone() Config    { return c }

// TextConfig styles a text clip placement.
type TextConfig struct {
	Text       string    `json:"text"`
	FontFamily string    `json:"fontFamily"`
	FontSize   float64   `json:"fontSize"`
	Color      string    `json:"color"`
	Transform  Transform `json:"transform"`
	Opacity    float64   `json:"opacity"`
	ZIndex     int       `json:"zIndex"`
}

func (c TextConfig) Kind() media.Type { return media.TypeText }
func (c TextConfig) Clone() Config    { return c }

// DefaultConfig returns the initial config for a media type.
func DefaultConfig(kind media.Type) Config {
	switch kind {
	case media.TypeVideo:
		return VideoConfig{Transform: DefaultTransform(), Opacity: 1, Volume: 1}
	case media.TypeImage:
		return ImageConfig{Transform: DefaultTransform(), Opacity: 1}
	case media.TypeAudio:
		return AudioConfig{Volume: 1}
	case media.TypeText:
		return TextConfig{FontFamily: "sans-serif", FontSize: 48, Color: "#ffffff", Transform: DefaultTransform(), Opacity: 1}
	default:
		return VideoConfig{Transform: DefaultTransform(), Opacity: 1, Volume: 1}
	}
}

// HasVisualProperties reports whether the config carries transform/opacity.
func HasVisualProperties(cfg Config) bool {
	switch cfg.(type) {
	case VideoConfig, ImageConfig, TextConfig:
		return true
	case AudioConfig:
		return false
	default:
		return false
	}
}

// HasAudioProperties reports whether the config carries volume/mute.
func HasAudioProperties(cfg Config) bool {
	switch cfg.(type) {
	case VideoConfig, AudioConfig:
		return true
	case ImageConfig, TextConfig:
		return false
	default:
		return false
	}
}
