// Package tasksh is an interactive shell for Taskwarrior.
package tasksh

// Version is the tasksh release version.
const Version = "1.2.0"
