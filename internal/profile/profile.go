// Package profile describes the supported relay boards. Everything that
// differs between boards lives here so the plan builder has one code path.
package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Encoder is the GStreamer H.264 element a board streams with.
type Encoder struct {
	Element  string
	Props    string
	Packages []string
}

// Profile is a hardware descriptor.
type Profile struct {
	Name  string
	Model string

	// BootConfig is the firmware config file holding overlays.
	BootConfig string
	BootLines  []string
	CameraLine string

	// UARTDevice is the serial port wired to the flight controller.
	UARTDevice string

	WifiInterface string
	LTEInterface  string
	ModemDevice   string

	Encoder  Encoder
	Packages []string
}

const (
	Pi5    = "pi5"
	PiZero = "pizero"
	CM4    = "cm4"
)

var software = Encoder{
	Element:  "x264enc",
	Props:    "tune=zerolatency speed-preset=ultrafast key-int-max=30",
	Packages: []string{"gstreamer1.0-plugins-ugly"},
}

// The hardware encoder takes its bitrate through extra-controls, which the
// pipeline builder fills in.
var hardware = Encoder{
	Element:  "v4l2h264enc",
	Packages: []string{"gstreamer1.0-plugins-good"},
}

var builtin = map[string]Profile{
	Pi5: {
		Name:          Pi5,
		Model:         "Raspberry Pi 5",
		BootConfig:    "/boot/firmware/config.txt",
		BootLines:     []string{"dtparam=uart0=on"},
		CameraLine:    "camera_auto_detect=1",
		UARTDevice:    "/dev/ttyAMA0",
		WifiInterface: "wlan0",
		LTEInterface:  "wwan0",
		ModemDevice:   "/dev/cdc-wdm0",
		Encoder:       software,
		Packages:      []string{"rpicam-apps-lite"},
	},
	PiZero: {
		Name:          PiZero,
		Model:         "Raspberry Pi Zero 2 W",
		BootConfig:    "/boot/firmware/config.txt",
		BootLines:     []string{"dtoverlay=disable-bt"},
		CameraLine:    "camera_auto_detect=1",
		UARTDevice:    "/dev/serial0",
		WifiInterface: "wlan0",
		LTEInterface:  "wwan0",
		ModemDevice:   "/dev/cdc-wdm0",
		Encoder:       hardware,
		Packages:      []string{"libcamera-apps-lite"},
	},
	CM4: {
		Name:          CM4,
		Model:         "Raspberry Pi Compute Module 4",
		BootConfig:    "/boot/firmware/config.txt",
		BootLines:     []string{"dtoverlay=disable-bt", "dtoverlay=dwc2,dr_mode=host"},
		CameraLine:    "dtoverlay=imx219,cam0",
		UARTDevice:    "/dev/serial0",
		WifiInterface: "wlan0",
		LTEInterface:  "wwan0",
		ModemDevice:   "/dev/cdc-wdm0",
		Encoder:       hardware,
		Packages:      []string{"libcamera-apps-lite"},
	},
}

// Lookup returns the named profile. Names are case-insensitive.
func Lookup(name string) (Profile, error) {
	p, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (expected one of %s)", name, strings.Join(Names(), ", "))
	}
	return p.clone(), nil
}

// Exists reports whether name is a built-in profile.
func Exists(name string) bool {
	_, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names lists built-in profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every built-in profile sorted by name.
func All() []Profile {
	out := make([]Profile, 0, len(builtin))
	for _, n := range Names() {
		out = append(out, builtin[n].clone())
	}
	return out
}

// HardwareEncoder reports whether the board encodes H.264 in hardware.
func (p Profile) HardwareEncoder() bool {
	return p.Encoder.Element != software.Element
}

func (p Profile) clone() Profile {
	p.BootLines = append([]string(nil), p.BootLines...)
	p.Packages = append([]string(nil), p.Packages...)
	p.Encoder.Packages = append([]string(nil), p.Encoder.Packages...)
	return p
}
