package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/genn/painel-os/internal/orders/metrics"
	"github.com/genn/painel-os/internal/orders/normalize"
	"github.com/genn/painel-os/internal/orders/panels"
	"github.com/genn/painel-os/internal/orders/types"
	"github.com/genn/painel-os/internal/sheets"
	"gopkg.in/yaml.v3"
)

// Sheet describes one published spreadsheet and how to read it.
type Sheet struct {
	Name      string   `yaml:"name"`
	Title     string   `yaml:"title"`
	URL       string   `yaml:"url"`
	Delimiter string   `yaml:"delimiter"`
	Encoding  string   `yaml:"encoding"`
	Panels    []string `yaml:"panels"`

	ContractColumn string   `yaml:"contract_column"`
	StatusColumn   string   `yaml:"status_column"`
	DateColumns    []string `yaml:"date_columns"`
	MoneyColumns   []string `yaml:"money_columns"`

	Contracts         []panels.Contract        `yaml:"contracts"`
	DisciplineGroups  []panels.DisciplineGroup `yaml:"discipline_groups"`
	StatusSets        metrics.StatusSets       `yaml:"status_sets"`
	FinalizedStatuses []string                 `yaml:"finalized_statuses"`
}

type Config struct {
	Sheets []Sheet `yaml:"sheets"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML config, fills in the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	for i := range cfg.Sheets {
		cfg.Sheets[i].applyDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Sheet) applyDefaults() {
	s.Name = strings.ToLower(strings.TrimSpace(s.Name))
	if s.Title == "" {
		s.Title = strings.ToUpper(s.Name)
	}
	if s.Delimiter == "" {
		s.Delimiter = ","
	}
	if s.Encoding == "" {
		s.Encoding = "utf-8"
	}
	if len(s.Panels) == 0 {
		s.Panels = []string{string(panels.OverviewKind)}
	}
	if s.ContractColumn == "" {
		s.ContractColumn = types.ColContract
	}
	if s.StatusColumn == "" {
		s.StatusColumn = types.ColStatus
	}
	if s.DateColumns == nil {
		s.DateColumns = normalize.DefaultSchema.DateColumns
	}
	if s.MoneyColumns == nil {
		s.MoneyColumns = normalize.DefaultSchema.MoneyColumns
	}
}

func (c *Config) Validate() error {
	if len(c.Sheets) == 0 {
		return errors.New("no sheets configured")
	}
	seen := make(map[string]struct{}, len(c.Sheets))
	var errs []error
	for _, s := range c.Sheets {
		if s.Name == "" {
			errs = append(errs, errors.New("sheet without name"))
			continue
		}
		if _, dup := seen[s.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate sheet %q", s.Name))
		}
		seen[s.Name] = struct{}{}
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("sheet %q: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (s Sheet) validate() error {
	var errs []error
	if s.URL == "" {
		errs = append(errs, errors.New("missing url"))
	}
	if utf8.RuneCountInString(s.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("delimiter %q must be a single character", s.Delimiter))
	}
	for _, p := range s.Panels {
		if _, err := panels.ParseKind(p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.StatusSets.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) Sheet(name string) (Sheet, bool) {
	name = strings.ToLower(name)
	for _, s := range c.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// Select returns the named sheets, or all of them when names is empty.
func (c *Config) Select(names []string) ([]Sheet, error) {
	if len(names) == 0 {
		return c.Sheets, nil
	}
	out := make([]Sheet, 0, len(names))
	for _, n := range names {
		s, ok := c.Sheet(strings.TrimSpace(n))
		if !ok {
			return nil, fmt.Errorf("unknown sheet %q", n)
		}
		out = append(out, s)
	}
	return out, nil
}

func (s Sheet) Source() sheets.Source {
	delimiter, _ := utf8.DecodeRuneInString(s.Delimiter)
	return sheets.Source{Name: s.Name, URL: s.URL, Delimiter: delimiter, Encoding: s.Encoding}
}

func (s Sheet) Schema() normalize.Schema {
	return normalize.Schema{
		ContractColumn: s.ContractColumn,
		StatusColumn:   s.StatusColumn,
		DateColumns:    s.DateColumns,
		MoneyColumns:   s.MoneyColumns,
	}
}

func (s Sheet) PanelConfig() panels.Config {
	return panels.Config{
		Contracts:         s.Contracts,
		DisciplineGroups:  s.DisciplineGroups,
		Status:            s.StatusSets,
		FinalizedStatuses: s.FinalizedStatuses,
	}
}

func (s Sheet) Supports(kind panels.Kind) bool {
	for _, p := range s.Panels {
		if panels.Kind(p) == kind {
			return true
		}
	}
	return false
}
