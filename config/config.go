// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable settings,
// ex: XCIMPORT_CHEMCOMP_OFFLINE=true
const EnvPrefix = "XCIMPORT"

// Defaults of the settings that the pipeline packages also default to
const (
	DefaultChemCompURL  = "https://data.rcsb.org/rest/v1/core/chemcomp"
	DefaultMaxDistance  = 100.0
	DefaultApoSuffix    = "_apo"
	DefaultDesolvSuffix = "_apo-desolv"
	DefaultSolvSuffix   = "_apo-solv"
)

// IsolateConfig is for checking isolated ligands against their CONECT records
type IsolateConfig struct {
	// the largest accepted difference between a ligand's CONECT records and
	// its atoms. -1 turns the check off
	ConectTolerance int `mapstructure:"conect-tolerance"`

	// whether a ligand beyond the tolerance fails rather than warns
	Strict bool `mapstructure:"strict"`
}

// CovalentConfig is for attaching covalently bound protein atoms
type CovalentConfig struct {
	// the farthest a ligand atom can be from its partner, in Angstroms
	MaxDistance float64 `mapstructure:"max-distance"`
}

// ChemCompConfig is for the chemical component dictionary lookup
type ChemCompConfig struct {
	// the chemical component endpoint, queried at <URL>/<code>
	URL string `mapstructure:"url"`

	// the limit on each attempt
	Timeout time.Duration `mapstructure:"timeout"`

	// the number of retries after a network or server failure
	Retries int `mapstructure:"retries"`

	// never call the network
	Offline bool `mapstructure:"offline"`

	// path to the sqlite cache. Empty is no disk cache
	Cache string `mapstructure:"cache"`

	// the number of in-memory entries
	CacheSize int `mapstructure:"cache-size"`
}

// SuffixConfig names the apo files, ex: "<base>_apo.pdb"
type SuffixConfig struct {
	Apo    string `mapstructure:"apo"`
	Desolv string `mapstructure:"desolv"`
	Solv   string `mapstructure:"solv"`
}

// Config is the root-level settings struct and is a mix
// of settings available in a config file, the environment and
// those available from the command line
type Config struct {
	// the target (project) name used in output paths
	Target string `mapstructure:"target"`

	// the output root. Results go in <out>/<target>/aligned
	Out string `mapstructure:"out"`

	// whether to attach covalently linked protein atoms to ligands
	Covalent bool `mapstructure:"covalent"`

	// whether inputs are single chains named like "x0123_A"
	Monomerize bool `mapstructure:"monomerize"`

	// the number of ligands processed at once
	Workers int `mapstructure:"workers"`

	// path to a YAML non-ligand registry. Empty uses the built-in list
	Nonligands string `mapstructure:"nonligands"`

	// whether to drop informational output
	Quiet bool `mapstructure:"quiet"`

	// path to a prometheus textfile to write counters to. Empty is none
	MetricsFile string `mapstructure:"metrics-file"`

	Isolate IsolateConfig `mapstructure:"isolate"`

	CovalentLink CovalentConfig `mapstructure:"covalent-link"`

	ChemComp ChemCompConfig `mapstructure:"chemcomp"`

	Suffix SuffixConfig `mapstructure:"suffix"`
}

// SetDefaults registers the default of every setting with viper
func SetDefaults(v *viper.Viper) {
	v.SetDefault("out", ".")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("isolate.conect-tolerance", 1)
	v.SetDefault("isolate.strict", false)
	v.SetDefault("covalent-link.max-distance", DefaultMaxDistance)
	v.SetDefault("chemcomp.url", DefaultChemCompURL)
	v.SetDefault("chemcomp.timeout", 10*time.Second)
	v.SetDefault("chemcomp.retries", 2)
	v.SetDefault("chemcomp.offline", false)
	v.SetDefault("chemcomp.cache", "")
	v.SetDefault("chemcomp.cache-size", 256)
	v.SetDefault("suffix.apo", DefaultApoSuffix)
	v.SetDefault("suffix.desolv", DefaultDesolvSuffix)
	v.SetDefault("suffix.solv", DefaultSolvSuffix)
}

// Bind reads XCIMPORT_* environment variables into v. Nested keys use
// underscores, ex: XCIMPORT_ISOLATE_CONECT_TOLERANCE
func Bind(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// New returns a new Config struct populated by Viper settings
// (defaults, a config file, XCIMPORT_* environment variables
// and/or command line arguments)
func New() (*Config, error) {
	return FromViper(viper.GetViper())
}

// FromViper decodes the settings of one viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c, nil
}
