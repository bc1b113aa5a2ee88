// Package api defines the device state snapshot and the command protocol
// shared by the device daemon, its transports and its clients.
package api
