// Package telemetry feeds live node metrics into a controller.
//
// A Subscriber connects to a socket.io endpoint and listens for metric events
// shaped like
//
//	{"appId": "app-2", "nodeId": "a", "status": "degraded", "cpu": 71.5}
//
// Every attribute except appId and nodeId is merged into the node's data
// through the controller, so telemetry follows the same rules as a user edit:
// it only touches the application currently on screen and it is persisted
// only after that application has been loaded.
package telemetry
