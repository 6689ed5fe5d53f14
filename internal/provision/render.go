package provision

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/alexisbeaulieu97/relayprov/internal/config"
	"github.com/alexisbeaulieu97/relayprov/internal/profile"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("payloads").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"add": func(a, b int) int { return a + b },
			"mul": func(a, b int) int { return a * b },
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// Payload names accepted by Render.
const (
	PayloadMAVLinkConf  = "main.conf"
	PayloadMAVLinkUnit  = "mavlink-router.service"
	PayloadStreamScript = "rtsp-server.py"
	PayloadStreamUnit   = "rtsp-stream.service"
	PayloadLTEScript    = "lte-setup.sh"
	PayloadLTEUnit      = "lte-modem.service"
)

// Paths on the target machine.
const (
	MAVLinkConfDir = "/etc/mavlink-router"
	MAVLinkConf    = MAVLinkConfDir + "/main.conf"
	MAVLinkBinary  = "/usr/bin/mavlink-routerd"
	StreamDir      = "/opt/relay"
	StreamScript   = StreamDir + "/rtsp-server.py"
	LTEScript      = "/usr/local/sbin/lte-setup.sh"
	DHClientConf   = "/etc/dhcp/dhclient.conf"
	UnitDir        = "/etc/systemd/system"
)

type templateData struct {
	Options config.Options
	Profile profile.Profile

	UART         string
	LTEInterface string
	ModemDevice  string
	Pipeline     string

	MAVLinkBinary string
	MAVLinkConf   string
	StreamScript  string
	LTEScript     string
}

func newTemplateData(opts config.Options, prof profile.Profile) templateData {
	data := templateData{
		Options:       opts,
		Profile:       prof,
		UART:          prof.UARTDevice,
		LTEInterface:  prof.LTEInterface,
		ModemDevice:   prof.ModemDevice,
		MAVLinkBinary: MAVLinkBinary,
		MAVLinkConf:   MAVLinkConf,
		StreamScript:  StreamScript,
		LTEScript:     LTEScript,
	}
	if opts.MAVLink.UART != "" {
		data.UART = opts.MAVLink.UART
	}
	if opts.LTE.Interface != "" {
		data.LTEInterface = opts.LTE.Interface
	}
	if opts.LTE.ModemDevice != "" {
		data.ModemDevice = opts.LTE.ModemDevice
	}
	data.Pipeline = Pipeline(prof, opts.Stream)
	return data
}

// Payloads lists the names Render accepts.
func Payloads() []string {
	names := []string{
		PayloadMAVLinkConf,
		PayloadMAVLinkUnit,
		PayloadStreamScript,
		PayloadStreamUnit,
		PayloadLTEScript,
		PayloadLTEUnit,
	}
	sort.Strings(names)
	return names
}

// Render produces the exact bytes written for a payload.
func Render(name string, opts config.Options, prof profile.Profile) ([]byte, error) {
	tmpl := templates.Lookup(name + ".tmpl")
	if tmpl == nil {
		return nil, fmt.Errorf("unknown payload %q (expected one of %s)", name, strings.Join(Payloads(), ", "))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newTemplateData(opts, prof)); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Pipeline builds the GStreamer launch line for the board's encoder.
func Pipeline(prof profile.Profile, s config.Stream) string {
	caps := fmt.Sprintf("video/x-raw,width=%d,height=%d,framerate=%d/1", s.Width, s.Height, s.Framerate)

	var enc string
	if prof.HardwareEncoder() {
		caps += ",format=NV12"
		enc = fmt.Sprintf(`%s extra-controls="controls,repeat_sequence_header=1,video_bitrate=%d" ! video/x-h264,level=(string)4 ! h264parse`,
			prof.Encoder.Element, s.Bitrate*1000)
	} else {
		enc = strings.TrimSpace(fmt.Sprintf("%s %s bitrate=%d", prof.Encoder.Element, prof.Encoder.Props, s.Bitrate)) +
			" ! video/x-h264,profile=baseline"
	}

	return fmt.Sprintf("( libcamerasrc ! %s ! videoconvert ! %s ! rtph264pay name=pay0 pt=96 config-interval=1 )", caps, enc)
}
