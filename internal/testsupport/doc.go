// Package testsupport provides shared fixtures for tests, most notably a
// scripted in-memory stand-in for the remote conversion service.
package testsupport
