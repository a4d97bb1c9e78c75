// Package workflow holds the client-side state of the submit and refine
// forms. It performs no I/O: Begin returns the request to send, and the
// caller reports the outcome through Succeed or Fail.
package workflow
