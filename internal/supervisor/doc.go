// Package supervisor owns the external renderer process.
//
// A Supervisor launches the renderer on demand, probes its TCP port until it
// accepts connections, and terminates it on request. One Supervisor is
// shared by every overlay client of a host; it is constructed explicitly and
// injected rather than held in a package global.
//
// Two locks are involved. mu guards the launch configuration, procMu guards
// the process handle and the readiness probe. Ready callbacks always run
// after procMu is released so they may call back into the Supervisor.
package supervisor
