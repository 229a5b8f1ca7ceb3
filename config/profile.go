// Package config loads MCP9808 device profiles from YAML and applies them to a sensor.
//
// A profile names only the settings it wants to change:
//
//	address: 0x18
//	resolution: max
//	hysteresis: 1.5
//	alert:
//	  enabled: true
//	  output: comparator
//	  polarity: active-low
//	  select: all
//	boundaries:
//	  lower: 10
//	  upper: 30
//	  critical: 80
//	shutdown: false
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/thermo/mcp9808"
)

var ErrInvalidProfile = errors.New("invalid profile")

type Profile struct {
	Address    *uint8      `yaml:"address,omitempty"`
	Resolution string      `yaml:"resolution,omitempty"`
	Hysteresis string      `yaml:"hysteresis,omitempty"`
	Alert      *Alert      `yaml:"alert,omitempty"`
	Boundaries *Boundaries `yaml:"boundaries,omitempty"`
	Shutdown   *bool       `yaml:"shutdown,omitempty"`
}

type Alert struct {
	Enabled  bool   `yaml:"enabled"`
	Output   string `yaml:"output,omitempty"`
	Polarity string `yaml:"polarity,omitempty"`
	Select   string `yaml:"select,omitempty"`
}

// Boundaries are in degrees Celsius.
type Boundaries struct {
	Lower    *float64 `yaml:"lower,omitempty"`
	Upper    *float64 `yaml:"upper,omitempty"`
	Critical *float64 `yaml:"critical,omitempty"`
}

func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("could not read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes a profile; unknown keys are rejected.
func Parse(data []byte) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(&p)
	if err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return p, nil
}

func (p Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

// BoundaryValue is a validated boundary write.
type BoundaryValue struct {
	Boundary mcp9808.Boundary
	Celsius  float64
}

// Settings is a validated profile. Nil fields and an empty boundary list leave the device untouched.
type Settings struct {
	Address    byte
	Resolution *mcp9808.Resolution
	Hysteresis *mcp9808.Hysteresis
	Alert      *mcp9808.AlertSettings
	Boundaries []BoundaryValue
	Shutdown   *bool
}

// Settings validates the profile. Every problem found is reported, not only the first one.
func (p Profile) Settings() (Settings, error) {
	s := Settings{Address: mcp9808.DefaultAddress, Shutdown: p.Shutdown}
	var errs []error
	if p.Address != nil {
		if *p.Address < 0x18 || *p.Address > 0x1F {
			errs = append(errs, fmt.Errorf("address %#02x outside 0x18..0x1f", *p.Address))
		}
		s.Address = *p.Address
	}
	if p.Resolution != "" {
		res, err := mcp9808.ParseResolution(p.Resolution)
		if err != nil {
			errs = append(errs, err)
		}
		s.Resolution = &res
	}
	if p.Hysteresis != "" {
		h, err := mcp9808.ParseHysteresis(p.Hysteresis)
		if err != nil {
			errs = append(errs, err)
		}
		s.Hysteresis = &h
	}
	if p.Alert != nil {
		alert, err := p.Alert.settings()
		if err != nil {
			errs = append(errs, err)
		}
		s.Alert = &alert
	}
	if p.Boundaries != nil {
		b, err := p.Boundaries.values()
		if err != nil {
			errs = append(errs, err)
		}
		s.Boundaries = b
	}
	if len(errs) > 0 {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidProfile, errors.Join(errs...))
	}
	return s, nil
}

func (a Alert) settings() (mcp9808.AlertSettings, error) {
	out, err1 := mcp9808.ParseAlertOutput(a.Output)
	pol, err2 := mcp9808.ParseAlertPolarity(a.Polarity)
	sel, err3 := mcp9808.ParseAlertSelect(a.Select)
	return mcp9808.AlertSettings{Enabled: a.Enabled, Output: out, Polarity: pol, Select: sel}, errors.Join(err1, err2, err3)
}

func (b Boundaries) values() ([]BoundaryValue, error) {
	var values []BoundaryValue
	var errs []error
	for _, v := range []struct {
		boundary mcp9808.Boundary
		celsius  *float64
	}{
		{mcp9808.BoundaryLower, b.Lower},
		{mcp9808.BoundaryUpper, b.Upper},
		{mcp9808.BoundaryCritical, b.Critical},
	} {
		if v.celsius == nil {
			continue
		}
		if _, err := mcp9808.EncodeBoundary(*v.celsius); err != nil {
			errs = append(errs, fmt.Errorf("%s boundary: %w", v.boundary, err))
			continue
		}
		values = append(values, BoundaryValue{Boundary: v.boundary, Celsius: *v.celsius})
	}
	if b.Lower != nil && b.Upper != nil && *b.Lower >= *b.Upper {
		errs = append(errs, fmt.Errorf("lower boundary %g is not below upper boundary %g", *b.Lower, *b.Upper))
	}
	if b.Upper != nil && b.Critical != nil && *b.Upper > *b.Critical {
		errs = append(errs, fmt.Errorf("upper boundary %g is above critical boundary %g", *b.Upper, *b.Critical))
	}
	return values, errors.Join(errs...)
}

// Target is the part of the sensor handle a profile is applied to.
type Target interface {
	SetAlertBoundary(ctx context.Context, b mcp9808.Boundary, celsius float64) error
	SetHysteresis(ctx context.Context, h mcp9808.Hysteresis) error
	SetAlertMode(ctx context.Context, alert mcp9808.AlertSettings) error
	SetResolution(ctx context.Context, res mcp9808.Resolution) error
	EnterShutdown(ctx context.Context) error
	ExitShutdown(ctx context.Context) error
}

// Apply writes the settings. Boundaries and hysteresis go first so that enabling the alert
// output never compares against stale limits. Apply stops at the first failure.
func Apply(ctx context.Context, dev Target, s Settings) error {
	for _, b := range s.Boundaries {
		if err := dev.SetAlertBoundary(ctx, b.Boundary, b.Celsius); err != nil {
			return err
		}
	}
	if s.Hysteresis != nil {
		if err := dev.SetHysteresis(ctx, *s.Hysteresis); err != nil {
			return err
		}
	}
	if s.Alert != nil {
		if err := dev.SetAlertMode(ctx, *s.Alert); err != nil {
			return err
		}
	}
	if s.Resolution != nil {
		if err := dev.SetResolution(ctx, *s.Resolution); err != nil {
			return err
		}
	}
	if s.Shutdown != nil {
		if *s.Shutdown {
			return dev.EnterShutdown(ctx)
		}
		return dev.ExitShutdown(ctx)
	}
	return nil
}

// Source is the part of the sensor handle a profile is captured from.
type Source interface {
	Address() byte
	ReadConfig(ctx context.Context) (mcp9808.Config, error)
	ReadResolution(ctx context.Context) (mcp9808.Resolution, error)
	ReadAlertBoundary(ctx context.Context, b mcp9808.Boundary) (float64, error)
}

// Capture reads the current device state as a complete profile.
func Capture(ctx context.Context, dev Source) (Profile, error) {
	cfg, err := dev.ReadConfig(ctx)
	if err != nil {
		return Profile{}, err
	}
	res, err := dev.ReadResolution(ctx)
	if err != nil {
		return Profile{}, err
	}
	var bounds [3]float64
	for i, b := range []mcp9808.Boundary{mcp9808.BoundaryLower, mcp9808.BoundaryUpper, mcp9808.BoundaryCritical} {
		bounds[i], err = dev.ReadAlertBoundary(ctx, b)
		if err != nil {
			return Profile{}, err
		}
	}
	address := dev.Address()
	shutdown := cfg.Shutdown()
	alert := cfg.Alert()
	return Profile{
		Address:    &address,
		Resolution: res.String(),
		Hysteresis: strconv.FormatFloat(float64(cfg.Hysteresis().Millidegrees())/1000, 'f', -1, 64),
		Alert: &Alert{
			Enabled:  alert.Enabled,
			Output:   alert.Output.String(),
			Polarity: alert.Polarity.String(),
			Select:   alert.Select.String(),
		},
		Boundaries: &Boundaries{Lower: &bounds[0], Upper: &bounds[1], Critical: &bounds[2]},
		Shutdown:   &shutdown,
	}, nil
}
