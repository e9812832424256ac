// Package config loads raffle settings from a YAML file.
//
// Settings are applied over Default(), then checked against an embedded
// CUE schema. Every failure is a raffle CONFIG error.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/bookclub/raffle/internal/raffle"
)

//go:embed schema.cue
var schemaCUE string

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config holds validated settings.
type Config struct {
	TotalNumbers   int
	PricePerNumber raffle.Money
	Currency       currency.Unit
	Locale         language.Tag
	Storage        Storage
}

// Storage selects and addresses the snapshot backend.
type Storage struct {
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	Key       string `yaml:"key"`
}

// Raffle returns the settings the workflow needs.
func (c Config) Raffle() raffle.Config {
	return raffle.Config{TotalNumbers: c.TotalNumbers, PricePerNumber: c.PricePerNumber}
}

// file mirrors the YAML layout. Price stays a string so "5.00" and 5.00
// both keep their exact decimal text.
type file struct {
	TotalNumbers   int     `yaml:"total_numbers"`
	PricePerNumber string  `yaml:"price_per_number"`
	Currency       string  `yaml:"currency"`
	Locale         string  `yaml:"locale"`
	Storage        Storage `yaml:"storage"`
}

// view is the shape checked against #Config.
type view struct {
	TotalNumbers int         `json:"total_numbers"`
	PriceCents   int64       `json:"price_cents"`
	Currency     string      `json:"currency"`
	Locale       string      `json:"locale"`
	Storage      storageView `json:"storage"`
}

type storageView struct {
	Driver    string `json:"driver"`
	Path      string `json:"path"`
	RedisAddr string `json:"redis_addr"`
	Key       string `json:"key"`
}

func defaultFile() file {
	return file{
		TotalNumbers:   100,
		PricePerNumber: "5.00",
		Currency:       "BRL",
		Locale:         "pt-BR",
		Storage: Storage{
			Driver:    DriverSQLite,
			Path:      "raffle.db",
			RedisAddr: "localhost:6379",
			Key:       "raffle:state",
		},
	}
}

// Default returns the built-in settings.
func Default() Config {
	cfg, err := build(defaultFile())
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

// Load reads the file at path. An empty path returns Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, configError("read config file", err)
	}
	return Parse(data)
}

// Parse decodes YAML settings over the defaults. Unknown keys are
// rejected. An empty document yields Default().
func Parse(data []byte) (Config, error) {
	f := defaultFile()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, configError("parse YAML", err)
	}
	return build(f)
}

func build(f file) (Config, error) {
	price, err := raffle.ParseMoney(strings.TrimSpace(f.PricePerNumber))
	if err != nil {
		return Config{}, configError("price_per_number", err)
	}

	v := view{
		TotalNumbers: f.TotalNumbers,
		PriceCents:   int64(price),
		Currency:     f.Currency,
		Locale:       f.Locale,
		Storage: storageView{
			Driver:    f.Storage.Driver,
			Path:      f.Storage.Path,
			RedisAddr: f.Storage.RedisAddr,
			Key:       f.Storage.Key,
		},
	}
	if err := validate(v); err != nil {
		return Config{}, err
	}

	switch f.Storage.Driver {
	case DriverSQLite:
		if f.Storage.Path == "" {
			return Config{}, raffle.NewConfigError("storage.path is required for driver %q", DriverSQLite)
		}
	case DriverRedis:
		if f.Storage.RedisAddr == "" {
			return Config{}, raffle.NewConfigError("storage.redis_addr is required for driver %q", DriverRedis)
		}
	}

	unit, err := currency.ParseISO(f.Currency)
	if err != nil {
		return Config{}, configError("currency", err)
	}
	tag, err := language.Parse(f.Locale)
	if err != nil {
		return Config{}, configError("locale", err)
	}

	return Config{
		TotalNumbers:   f.TotalNumbers,
		PricePerNumber: price,
		Currency:       unit,
		Locale:         tag,
		Storage:        f.Storage,
	}, nil
}

// validate unifies v with the embedded #Config schema.
func validate(v view) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return configError("compile schema", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	unified := def.Unify(ctx.Encode(v))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError reports the first schema violation.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return configError("invalid config", err)
	}
	first := errs[0]
	return &raffle.Error{
		Code:    raffle.CodeConfig,
		Message: fmt.Sprintf("%s: %s", strings.Join(first.Path(), "."), firstLine(first.Error())),
		Err:     err,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func configError(what string, err error) *raffle.Error {
	return &raffle.Error{Code: raffle.CodeConfig, Message: what, Err: err}
}
