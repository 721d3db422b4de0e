package config

import (
	"bytes"
	"os"
	"text/template"

	"github.com/cometbft/cometbft/config"
)

// DefaultDirPerm is the default permissions used when creating directories.
const DefaultDirPerm = 0o700

var govTemplate *template.Template

func init() {
	var err error
	if govTemplate, err = template.New("govConfigTemplate").Parse(defaultGovTemplate); err != nil {
		panic(err)
	}
}

// WriteConfigFile writes the CometBFT sections of cfg to configFilePath and
// appends the [gov] section.
func WriteConfigFile(configFilePath string, cfg *Config) error {
	config.WriteConfigFile(configFilePath, cfg.Config)

	var buffer bytes.Buffer
	if err := govTemplate.Execute(&buffer, cfg.Gov); err != nil {
		return err
	}
	f, err := os.OpenFile(configFilePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(buffer.Bytes())
	return err
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in GovConfig in config/config.go.
const defaultGovTemplate = `

#######################################################
###           Governance Configuration Options      ###
#######################################################
[gov]

# Identity allowed to migrate the module
super_admin = "{{ .SuperAdmin }}"

# Contract address and RPC endpoint of the predecessor deployment.
# Leave legacy_rpc empty to disable read-through.
legacy_contract = "{{ .LegacyContract }}"
legacy_rpc = "{{ .LegacyRPC }}"

# Upper bound of one call to the predecessor, e.g. "3s"
legacy_timeout = "{{ .LegacyTimeout }}"

# Listen address of the read-only HTTP API
api_listen = "{{ .APIListen }}"

# Origins allowed to call the HTTP API, every origin when empty
api_cors_origins = [{{ range $i, $o := .APICorsOrigins }}{{ if $i }}, {{ end }}"{{ $o }}"{{ end }}]
`
