package app

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (FLOORING_ prefix), flags, or YAML config files.
// All paths are fixed at startup.
type Config struct {
	OrdersDir    string `default:"res/Orders" usage:"Directory holding per-date order files" flag:"orders-dir"`
	ProductsFile string `default:"res/Data/Products.txt" usage:"Product catalog file" flag:"products-file"`
	TaxesFile    string `default:"res/Data/Taxes.txt" usage:"Per-state tax rate file" flag:"taxes-file"`
	Export       ExportConfig
}

// ExportConfig controls the consolidated export outputs.
type ExportConfig struct {
	File     string `default:"res/Backup/DataExport.txt" usage:"Consolidated export file" flag:"export-file"`
	Gzip     bool   `default:"false" usage:"Also write a gzip-compressed export copy" flag:"export-gzip"`
	JSONFile string `default:"" usage:"Optional JSON-lines export copy" flag:"export-json-file"`
}

// LoadConfig loads configuration from environment variables, flags, and
// YAML config files.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FLOORING",
		Files:     []string{"config.yaml", "/etc/flooring/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return &cfg, nil
}
