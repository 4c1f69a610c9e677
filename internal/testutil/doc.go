// Package testutil holds helpers shared by the package tests: a goroutine-safe
// log buffer, scripted graph sources and a recording snapshot store.
package testutil
