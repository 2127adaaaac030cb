// Package config loads the YAML topology description that tells
// cmd/esrtd how many execution streams to start, what scheduler and
// pools each one gets, and where to send audit/archival output.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

// PoolSpec describes one pool to construct for a scheduler.
type PoolSpec struct {
	Kind      model.PoolKind   `yaml:"kind"`
	Access    model.AccessMode `yaml:"access"`
	Automatic bool             `yaml:"automatic"`
}

// SchedSpec describes one scheduler to construct for an execution
// stream, predef name plus the pools it binds.
type SchedSpec struct {
	Predef model.SchedPredef `yaml:"predef"`
	Pools  []PoolSpec        `yaml:"pools"`
}

// XStreamSpec describes one execution stream: its top scheduler and
// whether it runs ULT-and-task or task-only work. Type is parsed but
// not consulted: esrtd and `esrtctl run` create every scheduler as
// model.SchedULT.
type XStreamSpec struct {
	Name  string        `yaml:"name"`
	Type  model.SchedType `yaml:"type"`
	Sched SchedSpec     `yaml:"scheduler"`
}

// AuditConfig configures the optional sqlite-backed lifecycle log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// ArchiveConfig configures the optional S3 (or local-file fallback)
// residual-work archival sink.
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Bucket     string `yaml:"bucket"`
	Prefix     string `yaml:"prefix"`
	Region     string `yaml:"region"`
	LocalDir   string `yaml:"local_dir"`
}

// APIConfig configures the chi-based introspection HTTP server.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// PolicyScriptConfig points at an optional JavaScript file supplying a
// pool-ordering/priority function, evaluated via goja.
type PolicyScriptConfig struct {
	Path string `yaml:"path"`
}

// Topology is the root configuration document: the full set of
// execution streams esrtd should bring up, plus the ambient/domain
// services wired around them.
type Topology struct {
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
	XStreams  []XStreamSpec `yaml:"xstreams"`
	Audit     AuditConfig   `yaml:"audit"`
	Archive   ArchiveConfig `yaml:"archive"`
	API       APIConfig     `yaml:"api"`
	Policy    PolicyScriptConfig `yaml:"policy_script"`
}

// DefaultTopology returns a single execution stream running the basic
// predefined scheduler over one default FIFO pool, with the
// introspection API listening on :8080 and nothing else enabled.
func DefaultTopology() Topology {
	return Topology{
		LogLevel:  "info",
		LogFormat: "text",
		XStreams: []XStreamSpec{
			{
				Name: "es-0",
				Type: model.SchedULT,
				Sched: SchedSpec{
					Predef: model.SchedBasic,
					Pools: []PoolSpec{
						{Kind: model.PoolFIFO, Access: model.PRSW, Automatic: true},
					},
				},
			},
		},
		API: APIConfig{Addr: ":8080"},
	}
}

// NewPool constructs the concrete Pool a PoolSpec describes, identified
// by id: a PriorityPool for PoolPriority, a FIFOPool otherwise.
func NewPool(id string, spec PoolSpec) pool.Pool {
	if spec.Kind == model.PoolPriority {
		return pool.NewPriorityPool(id, spec.Access, spec.Automatic)
	}
	return pool.NewFIFOPool(id, spec.Access, spec.Automatic)
}

// Load reads and parses a Topology document from path.
func Load(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Topology{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return t, nil
}
