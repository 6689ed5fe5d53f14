package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	relayerrors "github.com/alexisbeaulieu97/relayprov/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Load reads an options file, overlays it on Defaults and validates the
// result. An empty path yields validated defaults. The format follows the
// extension: .toml is TOML, anything else YAML.
func Load(path string) (*Options, error) {
	opts := Defaults()
	if path == "" {
		if err := Validate(&opts); err != nil {
			return nil, err
		}
		return &opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, relayerrors.NewParseError(path, 0, err)
	}

	if err := Decode(path, data, &opts); err != nil {
		return nil, err
	}

	if err := Validate(&opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Decode overlays data onto opts. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func Decode(path string, data []byte, opts *Options) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return decodeTOML(path, data, opts)
	}
	return decodeYAML(path, data, opts)
}

func decodeYAML(path string, data []byte, opts *Options) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil {
		// A file holding only comments decodes to nothing.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return relayerrors.NewParseError(path, extractLine(err), err)
	}
	return nil
}

func decodeTOML(path string, data []byte, opts *Options) error {
	meta, err := toml.Decode(string(data), opts)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return relayerrors.NewParseError(path, perr.Position.Line, errors.New(perr.Message))
		}
		return relayerrors.NewParseError(path, 0, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return relayerrors.NewParseError(path, 0, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", ")))
	}
	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
