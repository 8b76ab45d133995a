// Package daemonrun hosts the foreground daemon process: logging setup,
// per-run log files and retention, the pid file, config watching, and the IPC
// server lifetime.
package daemonrun
