package command

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/squadboard/internal/banana"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	msg := err.Error()
	if server := banana.ServerMessage(err); server != "" {
		msg = server
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", msg)

	if isConnectionError(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: Is the pipeline server running? Set --server or SQUADBOARD_SERVER.")
	}

	return err
}

// isConnectionError reports whether the server could not be reached at all.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}
