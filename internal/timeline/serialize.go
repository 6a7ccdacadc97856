package timeline

import (
	"encoding/json"
	"fmt"

	"cutline/internal/media"
)

type configEnvelope struct {
	Kind media.Type      `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodeConfig serializes a config with its kind tag.
func EncodeConfig(cfg Config) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("encode config: nil config")
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return json.Marshal(configEnvelope{Kind: cfg.Kind(), Data: data})
}

// DecodeConfig deserializes a tagged config envelope.
func DecodeConfig(raw []byte) (Config, error) {
	var envelope configEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode config envelope: %w", err)
	}
	var cfg Config
	switch envelope.Kind {
	case media.TypeVideo:
		var c VideoConfig
		if err := json.Unmarshal(envelope.Data, &c); err != nil {
			return nil, fmt.Errorf("decode video config: %w", err)
		}
		cfg = c
	case media.TypeImage:
		var c ImageConfig
		if err := json.Unmarshal(envelope.Data, &c); err != nil {
			return nil, fmt.Errorf("decode image config: %w", err)
		}
		cfg = c
	case media.TypeAudio:
		var c AudioConfig
		if err := json.Unmarshal(envelope.Data, &c); err != nil {
			return nil, fmt.Errorf("decode audio config: %w", err)
		}
		cfg = c
	case media.TypeText:
		var c TextConfig
		if err := json.Unmarshal(envelope.Data, &c); err != nil {
			return nil, fmt.Errorf("decode text config: %w", err)
		}
		cfg = c
	default:
		return nil, fmt.Errorf("decode config: unknown kind %q", envelope.Kind)
	}
	return cfg, nil
}

// EncodeAnimation serializes an animation; nil yields nil.
func EncodeAnimation(a *Animation) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode animation: %w", err)
	}
	return data, nil
}

// DecodeAnimation deserializes an animation; empty input yields nil.
func DecodeAnimation(raw []byte) (*Animation, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a Animation
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode animation: %w", err)
	}
	return &a, nil
}
