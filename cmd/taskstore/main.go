// Command taskstore runs the task manager's datastore connection manager
// together with its admin endpoints.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/girmesh03/Task-Manager-sub001/datastore/mongostore"
	_ "github.com/girmesh03/Task-Manager-sub001/datastore/pgstore"
	_ "github.com/girmesh03/Task-Manager-sub001/datastore/redisstore"
	_ "github.com/girmesh03/Task-Manager-sub001/datastore/sqlstore"
)

// Set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

// exitError carries a process exit code out of a command.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskstore",
		Short:         "Datastore connection manager for the task manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "path to a YAML or TOML config file")

	root.AddCommand(newServeCmd(), newCheckConfigCmd(), newTokenCmd(), newVersionCmd())
	return root
}

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var code exitError
	if errors.As(err, &code) {
		os.Exit(int(code))
	}
	fmt.Fprintf(os.Stderr, "taskstore: %v\n", err)
	os.Exit(1)
}
