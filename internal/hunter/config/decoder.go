package config

import (
	"fmt"
	"time"
)

type DecoderMode string

const (
	DecoderNative DecoderMode = "native"
	DecoderDocker DecoderMode = "docker"

	DefaultDecoderBinary  = "dumphfdl"
	DefaultDecoderTimeout = 30 * time.Second
	DefaultSoxBinary      = "sox"
	DefaultSampleFormat   = "CS16"
	DefaultDockerBinary   = "docker"
	DefaultDockerImage    = "ghcr.io/sdr-enthusiasts/docker-dumphfdl"
)

// SupportedOptions lists the options for the config parser
func (d DecoderMode) SupportedOptions() []DecoderMode {
	return []DecoderMode{DecoderNative, DecoderDocker}
}

type ConverterConfig struct {
	Enabled      bool   `toml:"enabled" comment:"pipe the capture through sox before decoding"`
	Binary       string `toml:"binary"`
	SampleRate   int    `toml:"sample_rate"`
	SampleFormat string `toml:"sample_format" comment:"passed to dumphfdl --sample-format"`
}

type DockerConfig struct {
	Binary string `toml:"binary"`
	Image  string `toml:"image"`
}

type DecoderConfig struct {
	Mode      DecoderMode     `toml:"mode" comment:"native runs dumphfdl directly, docker runs the container image"`
	Binary    string          `toml:"binary"`
	Timeout   Duration        `toml:"timeout" comment:"bounds the whole decode pipeline"`
	Converter ConverterConfig `toml:"converter"`
	Docker    DockerConfig    `toml:"docker"`
}

func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		Mode:    DecoderNative,
		Binary:  DefaultDecoderBinary,
		Timeout: Duration(DefaultDecoderTimeout),
		Converter: ConverterConfig{
			Enabled:      false,
			Binary:       DefaultSoxBinary,
			SampleRate:   DefaultResampleRate,
			SampleFormat: DefaultSampleFormat,
		},
		Docker: DockerConfig{
			Binary: DefaultDockerBinary,
			Image:  DefaultDockerImage,
		},
	}
}

func (c DecoderConfig) Verify() error {
	switch c.Mode {
	case DecoderNative:
		if c.Binary == "" {
			return fmt.Errorf("decoder binary is not set")
		}
		if c.Converter.Enabled && (c.Converter.Binary == "" || c.Converter.SampleRate <= 0) {
			return fmt.Errorf("converter needs a binary and a sample_rate")
		}
	case DecoderDocker:
		if c.Docker.Binary == "" || c.Docker.Image == "" {
			return fmt.Errorf("docker decoder needs a binary and an image")
		}
	default:
		return fmt.Errorf("%q: %w", c.Mode, ErrInvalidDecoderMode)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("decoder timeout: %w", ErrInvalidDuration)
	}

	return nil
}
