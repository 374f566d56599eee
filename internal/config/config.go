// Package config exposes the variables loaded through an optional '.yaml'
// file and environment variables, used throughout the Paxos cluster.
// Loading follows a two-step pattern (LoadConfigFile then
// FillEmptyFields) with environment variables layered on top, since env
// vars are the wire-level configuration surface for this cluster.
package config

import (
	"fmt"
	"io/ioutil"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Conf holds the configuration for any one of the four roles. Not every
// field is meaningful to every role; each cmd/<role>/main.go reads only
// the fields it needs.
type Conf struct {
	HOSTNAME string `yaml:"hostname"` // HOSTNAME is this instance's identifier (proposer_id / acceptor_id / callback host).
	PORT int `yaml:"port"` // PORT is the TCP port this role's HTTP server listens on.

	ACCEPTOR_URLS []string `yaml:"acceptor_urls"` // ACCEPTOR_URLS is the roster of Acceptor base URLs, recognized by the Proposer.
	LEARNER_URLS []string `yaml:"learner_urls"` // LEARNER_URLS is the roster of fully-qualified Learner /learn endpoints, recognized by the Proposer and the Acceptor.
	PROPOSER_URLS []string `yaml:"proposer_urls"` // PROPOSER_URLS is the roster of Proposer /propose endpoints, used only by the Client.

	RPC_TIMEOUT time.Duration `yaml:"rpc_timeout"` // RPC_TIMEOUT bounds every outbound Prepare/Accept/Learn/commit call.

	PROPOSER_BASE_BACKOFF_MIN float64 `yaml:"proposer_base_backoff_min"` // PROPOSER_BASE_BACKOFF_MIN is the lower bound (seconds) of the retry backoff window.
	PROPOSER_BASE_BACKOFF_MAX float64 `yaml:"proposer_base_backoff_max"` // PROPOSER_BASE_BACKOFF_MAX is the upper bound (seconds) of the retry backoff window.

	LEARNER_ACCEPTOR_COUNT int `yaml:"learner_acceptor_count"` // sizes the Learner's quorum via Majority; defaults from len(ACCEPTOR_URLS) when the Learner is given that list, otherwise must be set explicitly.

	AUDIT_BACKEND string `yaml:"audit_backend"` // AUDIT_BACKEND selects the audit.Sink implementation: "sqlite", "redis", or "none" (default).
	AUDIT_DB_PATH string `yaml:"audit_db_path"` // AUDIT_DB_PATH locates the sqlite audit database file, when AUDIT_BACKEND == "sqlite".
	AUDIT_REDIS_ADDR string `yaml:"audit_redis_addr"` // AUDIT_REDIS_ADDR is the redis address, when AUDIT_BACKEND == "redis".

	CLIENT_MIN_REQUESTS int `yaml:"client_min_requests"` // CLIENT_MIN_REQUESTS is the low end of the client's random request-count range.
	CLIENT_MAX_REQUESTS int `yaml:"client_max_requests"` // CLIENT_MAX_REQUESTS is the high end of the client's random request-count range.
}

// LoadConfigFile loads the config '.yaml' file onto the callee Conf
// object. A missing file is not fatal: the caller is expected to have
// already filled in sane field values, or to rely on FillEmptyFields plus
// environment overrides.
func (c *Conf) LoadConfigFile(fn string) {
	yamlFile, err := ioutil.ReadFile(fn)
	if err != nil {
		log.Printf("[CONFIG] -> No config file at %s (%v); relying on defaults and environment variables.", fn, err)
		return
	}
	if err := yaml.Unmarshal(yamlFile, c); err != nil {
		log.Fatalf("[CONFIG] -> Unmarshal: %v", err)
	}
}

// ApplyEnv overlays the cluster's environment-variable surface on top of
// whatever the YAML file (or defaults) already set. Env vars win,
// matching the original Python source's os.getenv(name, default)
// precedence.
func (c *Conf) ApplyEnv() {
	if v := os.Getenv("HOSTNAME"); v != "" {
		c.HOSTNAME = v
	}
	if v := os.Getenv("ACCEPTOR_URLS"); v != "" {
		c.ACCEPTOR_URLS = splitCSV(v)
	}
	if v := os.Getenv("LEARNER_URLS"); v != "" {
		c.LEARNER_URLS = splitCSV(v)
	}
	if v := os.Getenv("PROPOSER_URLS"); v != "" {
		c.PROPOSER_URLS = splitCSV(v)
	}
	if v := os.Getenv("PROPOSER_BASE_BACKOFF_MIN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PROPOSER_BASE_BACKOFF_MIN = f
		}
	}
	if v := os.Getenv("PROPOSER_BASE_BACKOFF_MAX"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PROPOSER_BASE_BACKOFF_MAX = f
		}
	}
	if v := os.Getenv("AUDIT_BACKEND"); v != "" {
		c.AUDIT_BACKEND = v
	}
}

// splitCSV turns a comma-separated env var into a list of trimmed,
// non-empty URLs, mirroring the original source's load_urls_from_env.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FillEmptyFields fills in those fields left empty by the YAML file/env
// vars and that need a run-time computation or a sane default.
func (c *Conf) FillEmptyFields() {
	if c.HOSTNAME == "" {
		c.HOSTNAME = fmt.Sprintf("node-%d", rand.Intn(10000))
	}
	if c.RPC_TIMEOUT == 0 {
		c.RPC_TIMEOUT = 3 * time.Second
	}
	if c.PROPOSER_BASE_BACKOFF_MIN == 0 {
		c.PROPOSER_BASE_BACKOFF_MIN = 1.0
	}
	if c.PROPOSER_BASE_BACKOFF_MAX == 0 {
		c.PROPOSER_BASE_BACKOFF_MAX = 5.0
	}
	if c.LEARNER_ACCEPTOR_COUNT == 0 {
		c.LEARNER_ACCEPTOR_COUNT = len(c.ACCEPTOR_URLS)
	}
	if c.AUDIT_BACKEND == "" {
		c.AUDIT_BACKEND = "none"
	}
	if c.AUDIT_DB_PATH == "" {
		c.AUDIT_DB_PATH = "./audit.db"
	}
	if c.AUDIT_REDIS_ADDR == "" {
		c.AUDIT_REDIS_ADDR = "localhost:6379"
	}
	if c.CLIENT_MIN_REQUESTS == 0 {
		c.CLIENT_MIN_REQUESTS = 10
	}
	if c.CLIENT_MAX_REQUESTS == 0 {
		c.CLIENT_MAX_REQUESTS = 50
	}
}

// Majority computes floor(|acceptors|/2) + 1 from a roster size, the
// single formula both the Proposer's MAJORITY and the Learner's QUORUM
// must share for the two thresholds to stay coupled regardless of
// cluster size.
func Majority(rosterSize int) int {
	return rosterSize/2 + 1
}

// Load is the common entry point used by every cmd/<role>/main.go: it
// loads an optional YAML file (path from argv[1], defaulting to
// "./config.yaml"), applies environment overrides, and fills in defaults.
func Load() Conf {
	configPath := "./config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	var c Conf
	c.LoadConfigFile(configPath)
	c.ApplyEnv()
	c.FillEmptyFields()
	return c
}
