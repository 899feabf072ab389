package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/faadiallop/FileTransferServer/internal/cliconfig"
	"github.com/faadiallop/FileTransferServer/pkg/log"
)

const longHelp = `Point-to-point file transfer over TCP.

The receiver admits a bounded number of concurrent senders and writes every
received file to <output-dir>/<name><suffix>. Senders stream files line by
line; a sender that arrives while the receiver is full is told so and
disconnected.

Configure via file ($HOME/.filetransfer/config.toml), env (FILETRANSFER_*),
or flags. Flags win over env, env wins over the file.`

var exampleUsage = strings.TrimSpace(`
  filetransfer serve 8 --output-dir /srv/incoming
  filetransfer send --addr files.example:5555 report.txt notes.txt
  filetransfer send --interactive
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// changedFlags returns the names of flags set on the command line.
func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}

// loadFileConfig reads path, or the default config path when path is empty.
// A missing default file is not an error; an explicitly named one is.
func loadFileConfig(path string) (cliconfig.FileConfig, string, error) {
	explicit := path != ""
	if !explicit {
		path = cliconfig.DefaultConfigPath()
	}
	if path == "" || (!explicit && !cliconfig.FileExists(path)) {
		return cliconfig.FileConfig{}, "", nil
	}
	fc, err := cliconfig.LoadFileConfig(path)
	if err != nil {
		return fc, "", fmt.Errorf("load config: %w", err)
	}
	return fc, path, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "filetransfer",
		Short:         "Point-to-point file transfer over TCP",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSendCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger, _ := cliconfig.NewLogger(os.Stderr, "info")
		logger.Error("filetransfer", log.Err(err))
		os.Exit(1)
	}
}
