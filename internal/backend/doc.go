// Package backend adapts external package managers (winget, choco, scoop,
// brew) and descriptor-declared manual commands to a single interface the
// provisioner iterates in priority order.
package backend
