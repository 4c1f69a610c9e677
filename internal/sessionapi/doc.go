// Package sessionapi exposes one controller over HTTP so a local UI can drive
// it: select an application, read the live graph and apply edits.
//
// Every response body is JSON. Mutations answer with the session view after
// the change. Errors are returned as {"error": "..."} with a status derived
// from the controller error: 409 when no graph is loaded, 404 for unknown
// nodes and 400 for rejected input.
//
// Select, clear-cache and retry return as soon as the controller has accepted
// the request. Pass ?wait=true to hold the response until the load settles.
package sessionapi
