// Package config loads the operator options that parameterize plan
// construction. Every question the operator could be asked is answered
// here, before any plan is built.
package config

// Options is the options file document. Zero values are replaced by
// Defaults before validation.
type Options struct {
	Profile     string `yaml:"profile" toml:"profile" validate:"omitempty,profile"`
	DisableWifi bool   `yaml:"disable_wifi" toml:"disable_wifi"`
	Reboot      bool   `yaml:"reboot" toml:"reboot"`

	Packages []string `yaml:"packages,omitempty" toml:"packages" validate:"omitempty,dive,package_name"`

	MAVLink MAVLink `yaml:"mavlink" toml:"mavlink"`
	Stream  Stream  `yaml:"stream" toml:"stream"`
	DHCP    DHCP    `yaml:"dhcp" toml:"dhcp"`
	LTE     LTE     `yaml:"lte" toml:"lte"`
	VPN     VPN     `yaml:"vpn" toml:"vpn"`
}

// MAVLink configures the mavlink-router build and its endpoint table.
type MAVLink struct {
	RepoURL   string `yaml:"repo_url" toml:"repo_url" validate:"required,git_url"`
	Branch    string `yaml:"branch,omitempty" toml:"branch"`
	SourceDir string `yaml:"source_dir" toml:"source_dir" validate:"required,abs_path"`

	// UART overrides the profile's serial device.
	UART    string `yaml:"uart,omitempty" toml:"uart" validate:"omitempty,abs_path"`
	Baud    int    `yaml:"baud" toml:"baud" validate:"oneof=57600 115200 230400 460800 500000 921600 1500000"`
	TCPPort int    `yaml:"tcp_port" toml:"tcp_port" validate:"min=0,max=65535"`

	Endpoints []UDPEndpoint `yaml:"endpoints" toml:"endpoints" validate:"required,min=1,unique=Name,dive"`
}

// UDPEndpoint is one [UdpEndpoint] section of main.conf.
type UDPEndpoint struct {
	Name    string `yaml:"name" toml:"name" validate:"required,endpoint_name"`
	Mode    string `yaml:"mode" toml:"mode" validate:"required,oneof=normal server"`
	Address string `yaml:"address" toml:"address" validate:"required,ip"`
	Port    int    `yaml:"port" toml:"port" validate:"min=1,max=65535"`
}

// Stream configures the RTSP camera service.
type Stream struct {
	Port      int    `yaml:"port" toml:"port" validate:"min=1,max=65535"`
	Path      string `yaml:"path" toml:"path" validate:"required,stream_path"`
	Width     int    `yaml:"width" toml:"width" validate:"min=160,max=3840"`
	Height    int    `yaml:"height" toml:"height" validate:"min=120,max=2160"`
	Framerate int    `yaml:"framerate" toml:"framerate" validate:"min=1,max=120"`
	Bitrate   int    `yaml:"bitrate_kbps" toml:"bitrate_kbps" validate:"min=100,max=20000"`
}

// DHCP holds the dhclient.conf timing lines.
type DHCP struct {
	Timeout int `yaml:"timeout" toml:"timeout" validate:"min=1,max=600"`
	Retry   int `yaml:"retry" toml:"retry" validate:"min=1,max=600"`
}

// LTE configures the QMI modem data path.
type LTE struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	APN         string `yaml:"apn,omitempty" toml:"apn" validate:"required_if=Enabled true,apn"`
	Interface   string `yaml:"interface,omitempty" toml:"interface" validate:"omitempty,alphanum"`
	ModemDevice string `yaml:"modem_device,omitempty" toml:"modem_device" validate:"omitempty,abs_path"`

	// ReadyTimeout bounds how long the boot script waits for the modem, in
	// seconds.
	ReadyTimeout int `yaml:"ready_timeout" toml:"ready_timeout" validate:"min=1,max=600"`
}

// VPN configures the optional mesh agents.
type VPN struct {
	ZeroTier  ZeroTier  `yaml:"zerotier" toml:"zerotier"`
	Tailscale Tailscale `yaml:"tailscale" toml:"tailscale"`
}

type ZeroTier struct {
	NetworkID string `yaml:"network_id,omitempty" toml:"network_id" validate:"omitempty,zerotier_network"`
}

type Tailscale struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	AuthKey  string `yaml:"auth_key,omitempty" toml:"auth_key"`
	Hostname string `yaml:"hostname,omitempty" toml:"hostname" validate:"omitempty,hostname_rfc1123"`
}

const DefaultMAVLinkRepo = "https://github.com/mavlink-router/mavlink-router.git"

// Defaults returns the options used when no file is given.
func Defaults() Options {
	return Options{
		MAVLink: MAVLink{
			RepoURL:   DefaultMAVLinkRepo,
			SourceDir: "/opt/mavlink-router",
			Baud:      57600,
			TCPPort:   5760,
			Endpoints: []UDPEndpoint{
				{Name: "gcs", Mode: "normal", Address: "0.0.0.0", Port: 14550},
			},
		},
		Stream: Stream{
			Port:      8554,
			Path:      "/cam",
			Width:     1280,
			Height:    720,
			Framerate: 30,
			Bitrate:   2000,
		},
		DHCP: DHCP{Timeout: 60, Retry: 15},
		LTE:  LTE{ReadyTimeout: 60},
	}
}

// ZeroTierEnabled reports whether a network should be joined.
func (o Options) ZeroTierEnabled() bool {
	return o.VPN.ZeroTier.NetworkID != ""
}
