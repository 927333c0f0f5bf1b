package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "signreel",
	Short: "Turn speech or text into a captioned sign-language video",
	Long: `Signreel transcribes an audio recording (or takes a typed transcript),
matches every word against a directory of sign-language clips and images,
and stitches the matches into one video with an "English: <word>" caption
under each sign.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags)
	if verbose {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	if quiet {
		log.SetOutput(io.Discard)
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
}
