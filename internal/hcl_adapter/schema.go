package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Server    *serverBlock    `hcl:"server,block"`
	Storage   *storageBlock   `hcl:"storage,block"`
	Remote    *remoteBlock    `hcl:"remote,block"`
	Persist   *persistBlock   `hcl:"persist,block"`
	Telemetry *telemetryBlock `hcl:"telemetry,block"`
	MockAPI   *mockAPIBlock   `hcl:"mock_api,block"`
	Apps      []*appBlock     `hcl:"app,block"`
	Remain    hcl.Body        `hcl:",remain"`
}

type serverBlock struct {
	Address         string `hcl:"address,optional"`
	HealthcheckPort int    `hcl:"healthcheck_port,optional"`
}

type storageBlock struct {
	Driver     string `hcl:"driver,optional"`
	Path       string `hcl:"path,optional"`
	Prefix     string `hcl:"prefix,optional"`
	QuotaBytes int64  `hcl:"quota_bytes,optional"`
	SyncWrites bool   `hcl:"sync_writes,optional"`
}

type remoteBlock struct {
	BaseURL string `hcl:"base_url"`
	Timeout string `hcl:"timeout,optional"`
}

type persistBlock struct {
	Debounce string `hcl:"debounce,optional"`
}

type telemetryBlock struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Event              string `hcl:"event,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}

type mockAPIBlock struct {
	Enabled *bool  `hcl:"enabled,optional"`
	Latency string `hcl:"latency,optional"`
}

type appBlock struct {
	ID     string       `hcl:"id,label"`
	Name   string       `hcl:"name,optional"`
	Status string       `hcl:"status,optional"`
	Icon   string       `hcl:"icon,optional"`
	Nodes  []*nodeBlock `hcl:"node,block"`
	Edges  []*edgeBlock `hcl:"edge,block"`
}

type nodeBlock struct {
	ID     string    `hcl:"id,label"`
	Type   string    `hcl:"type,optional"`
	X      float64   `hcl:"x,optional"`
	Y      float64   `hcl:"y,optional"`
	Label  string    `hcl:"label,optional"`
	Status string    `hcl:"status,optional"`
	CPU    float64   `hcl:"cpu,optional"`
	Memory float64   `hcl:"memory,optional"`
	Extra  cty.Value `hcl:"extra,optional"`
}

type edgeBlock struct {
	ID       string `hcl:"id,label"`
	Source   string `hcl:"source"`
	Target   string `hcl:"target"`
	Animated bool   `hcl:"animated,optional"`
}
