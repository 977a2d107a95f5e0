// Package zfcp models zFCP (SCSI over Fibre Channel on IBM Z) device records.
package zfcp

import (
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
)

// ErrInvalidDevice is returned for malformed device triples.
var ErrInvalidDevice = fmt.Errorf("zfcp: invalid device: %w", errdefs.ErrInvalidArgument)

// Device identifies one zFCP LUN
type Device struct {
	DeviceNumber string `json:"deviceNumber" yaml:"deviceNumber"`
	WWPN         string `json:"wwpn" yaml:"wwpn"`
	LUN          string `json:"lun" yaml:"lun"`
}

// NewDevice sanitises and validates a device triple. The device number is
// normalised to 0.0.xxxx, the WWPN to 0x followed by 16 hex digits padded on
// the left and the LUN to 0x followed by 16 hex digits padded on the right.
func NewDevice(deviceNumber, wwpn, lun string) (*Device, error) {
	number, err := sanitizeDeviceNumber(deviceNumber)
	if err != nil {
		return nil, err
	}
	port, err := sanitizeHex("WWPN", wwpn, false)
	if err != nil {
		return nil, err
	}
	unit, err := sanitizeHex("LUN", lun, true)
	if err != nil {
		return nil, err
	}
	return &Device{DeviceNumber: number, WWPN: port, LUN: unit}, nil
}

// Validate re-checks a possibly hand built record
func (d *Device) Validate() error {
	expect, err := NewDevice(d.DeviceNumber, d.WWPN, d.LUN)
	if err != nil {
		return err
	}
	if *expect != *d {
		return fmt.Errorf("%w: %v is not normalised", ErrInvalidDevice, d.String())
	}
	return nil
}

// Equal compares normalised triples
func (d *Device) Equal(other *Device) bool {
	return other != nil && *d == *other
}

// String renders the zfcp.conf line
func (d *Device) String() string {
	return fmt.Sprintf("%s %s %s", d.DeviceNumber, d.WWPN, d.LUN)
}

func sanitizeDeviceNumber(text string) (string, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return "", fmt.Errorf("%w: missing device number", ErrInvalidDevice)
	}
	bus := "0.0."
	if parts := strings.Split(text, "."); len(parts) == 3 {
		if !isHex(parts[0]) || !isHex(parts[1]) || len(parts[0]) != 1 || len(parts[1]) != 1 {
			return "", fmt.Errorf("%w: device number %q", ErrInvalidDevice, text)
		}
		bus = parts[0] + "." + parts[1] + "."
		text = parts[2]
	} else if len(parts) != 1 {
		return "", fmt.Errorf("%w: device number %q", ErrInvalidDevice, text)
	}
	if text == "" || len(text) > 4 || !isHex(text) {
		return "", fmt.Errorf("%w: device number %q", ErrInvalidDevice, text)
	}
	return bus + strings.Repeat("0", 4-len(text)) + text, nil
}

func sanitizeHex(name, text string, padRight bool) (string, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimPrefix(text, "0x")
	if text == "" || len(text) > 16 || !isHex(text) {
		return "", fmt.Errorf("%w: %v %q", ErrInvalidDevice, name, text)
	}
	padding := strings.Repeat("0", 16-len(text))
	if padRight {
		return "0x" + text + padding, nil
	}
	return "0x" + padding + text, nil
}

func isHex(text string) bool {
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return text != ""
}
