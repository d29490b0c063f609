package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	SVGConfig struct {
		Width  int `yaml:"width" validate:"gte=0"`
		Height int `yaml:"height" validate:"gte=0"`
	}

	StylesheetConfig struct {
		Name           string `yaml:"name" validate:"required"`
		SelectorPrefix string `yaml:"selector_prefix"`
		RuleTemplate   string `yaml:"rule_template" validate:"required"`
	}

	PreviewConfig struct {
		Enable bool   `yaml:"enable"`
		Name   string `yaml:"name" validate:"required_if=Enable true"`
		Title  string `yaml:"title"`
	}

	SpriteConfig struct {
		ImageName       string           `yaml:"image_name" validate:"required"`
		Extensions      []string         `yaml:"extensions" validate:"min=1,dive,required,startswith=."`
		Order           string           `yaml:"order" validate:"required,oneof=natural lexical"`
		AutoOrientation bool             `yaml:"auto_orientation"`
		PNGCompression  string           `yaml:"png_compression" validate:"required,oneof=default none speed best"`
		SVG             SVGConfig        `yaml:"svg"`
		Stylesheet      StylesheetConfig `yaml:"stylesheet"`
		Preview         PreviewConfig    `yaml:"preview"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Sprite    SpriteConfig   `yaml:"sprite"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	RuleTemplateFieldName TemplateFieldName = "rule_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(RuleTemplateFieldName)),
)

// checkOutputNames makes sure produced artifacts do not overwrite each other.
func checkOutputNames(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	names := map[string]string{}
	check := func(field, name string) {
		key := strings.ToLower(name)
		if _, exists := names[key]; exists {
			sl.ReportError(name, field, field, "unique_output", names[key])
			return
		}
		names[key] = field
	}
	check("ImageName", cfg.Sprite.ImageName)
	check("Stylesheet.Name", cfg.Sprite.Stylesheet.Name)
	if cfg.Sprite.Preview.Enable {
		check("Preview.Name", cfg.Sprite.Preview.Name)
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkOutputNames)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
