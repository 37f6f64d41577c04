// Package cmd implements the cobra command tree for the dripctl CLI:
// authentication, configuration management, the monitor run action, and
// version reporting.
package cmd
