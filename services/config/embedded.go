package config

import _ "embed"

var (
	//go:embed defaults/pico.yaml
	picoYAML []byte
	//go:embed defaults/linux.yaml
	linuxYAML []byte
	//go:embed defaults/host.yaml
	hostYAML []byte
)

var embedded = map[string][]byte{
	BoardPico:  picoYAML,
	BoardLinux: linuxYAML,
	BoardHost:  hostYAML,
}
