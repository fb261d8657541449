package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/tabular"
	"gopkg.in/yaml.v3"
)

//go:embed marketplaces.yaml
var defaultRegistry []byte

type SchemaCfg struct {
	Category     []string `yaml:"category" json:"category"`
	SubCategory  []string `yaml:"sub_category" json:"sub_category"`
	ProductGroup []string `yaml:"product_group" json:"product_group"`
	Commission   []string `yaml:"commission" json:"commission"`
}

type MarketplaceCfg struct {
	ID       string    `yaml:"id" json:"id"`
	Label    string    `yaml:"label" json:"label"`
	File     string    `yaml:"file" json:"file"`
	Sheet    string    `yaml:"sheet" json:"sheet,omitempty"`
	Policy   string    `yaml:"policy" json:"policy"`
	Mode     string    `yaml:"mode" json:"mode"`
	Disabled bool      `yaml:"disabled" json:"disabled,omitempty"`
	Schema   SchemaCfg `yaml:"schema" json:"schema"`
}

type RegistryCfg struct {
	DataDir      string           `yaml:"data_dir" json:"data_dir"`
	Marketplaces []MarketplaceCfg `yaml:"marketplaces" json:"marketplaces"`
}

var C RegistryCfg

// Load reads the marketplace registry from path, or the embedded default
// when path is empty.
func Load(path string) error {
	if path == "" {
		C = Default()
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, err := Parse(b)
	if err != nil {
		return err
	}
	C = cfg
	return nil
}

// Parse decodes a registry document and applies env overrides.
func Parse(b []byte) (RegistryCfg, error) {
	var cfg RegistryCfg
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RegistryCfg{}, fmt.Errorf("parse marketplace registry: %w", err)
	}
	// ENV overrides
	if dir := os.Getenv("COMMISSION_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	return cfg, nil
}

// Default returns the embedded registry.
func Default() RegistryCfg {
	cfg, err := Parse(defaultRegistry)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Profile builds the commission profile of m. The canonical interchange
// headers are appended to every alias list.
func (m MarketplaceCfg) Profile() (commission.Profile, error) {
	def := commission.DefaultSchema()
	p := commission.Profile{
		ID:    strings.TrimSpace(m.ID),
		Label: m.Label,
		Schema: commission.Schema{
			Category:     mergeAliases(m.Schema.Category, def.Category),
			SubCategory:  mergeAliases(m.Schema.SubCategory, def.SubCategory),
			ProductGroup: mergeAliases(m.Schema.ProductGroup, def.ProductGroup),
			Commission:   mergeAliases(m.Schema.Commission, def.Commission),
		},
	}

	policy, err := commission.ParsePolicy(m.Policy)
	if err != nil {
		return commission.Profile{}, fmt.Errorf("%s: %w", m.ID, err)
	}
	mode, err := commission.ParseMode(m.Mode)
	if err != nil {
		return commission.Profile{}, fmt.Errorf("%s: %w", m.ID, err)
	}
	p.Policy, p.Mode = policy, mode
	return p, p.Validate()
}

// Path resolves the data file of m against dataDir.
func (c RegistryCfg) Path(m MarketplaceCfg) string {
	if m.File == "" || filepath.IsAbs(m.File) {
		return m.File
	}
	return filepath.Join(c.DataDir, m.File)
}

// Enabled returns the marketplaces not switched off, in file order.
func (c RegistryCfg) Enabled() []MarketplaceCfg {
	out := make([]MarketplaceCfg, 0, len(c.Marketplaces))
	for _, m := range c.Marketplaces {
		if !m.Disabled {
			out = append(out, m)
		}
	}
	return out
}

// Paths maps enabled marketplace ids to their resolved data files.
func (c RegistryCfg) Paths() map[string]string {
	out := make(map[string]string)
	for _, m := range c.Enabled() {
		if p := c.Path(m); p != "" {
			out[m.ID] = p
		}
	}
	return out
}

// Markets builds file backed registry entries for every enabled marketplace.
func (c RegistryCfg) Markets() ([]commission.Marketplace, error) {
	var markets []commission.Marketplace
	for _, m := range c.Enabled() {
		p, err := m.Profile()
		if err != nil {
			return nil, err
		}
		if m.File == "" {
			return nil, fmt.Errorf("%s: no data file", m.ID)
		}
		markets = append(markets, commission.Marketplace{
			Profile: p,
			Source:  tabular.NewFileSource(c.Path(m), m.Sheet),
		})
	}
	return markets, nil
}

func mergeAliases(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, a := range list {
			a = strings.TrimSpace(a)
			if a == "" || seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
