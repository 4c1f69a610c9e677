// Package hcl_adapter loads flowkeeper configuration from HCL files.
//
// A configuration directory may hold any number of .hcl files. Each file may
// contain any of the top-level blocks below; single-instance blocks declared
// in a later file replace earlier ones, app blocks accumulate.
//
//	server    { address = ":8080"  healthcheck_port = 8081 }
//	storage   { driver = "badger"  path = "./data"  prefix = "ainyx_flow_" }
//	remote    { base_url = "http://localhost:8080"  timeout = "5s" }
//	persist   { debounce = "250ms" }
//	telemetry { url = "http://localhost:4000"  event = "node_metrics" }
//	mock_api  { enabled = true  latency = "300ms" }
//
//	app "app-2" {
//	  name   = "Postgres Cluster"
//	  status = "healthy"
//	  node "a" {
//	    type  = "database"
//	    x     = 100
//	    y     = 100
//	    label = "Primary DB"
//	    extra = { region = "eu-west-1" }
//	  }
//	  edge "ea-b" {
//	    source = "a"
//	    target = "b"
//	  }
//	}
package hcl_adapter
