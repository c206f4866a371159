package app

import "github.com/spf13/pflag"

// CliOptions is implemented by option sets bound to command-line flags.
type CliOptions interface {
	// AddFlags registers the options on fs.
	AddFlags(fs *pflag.FlagSet)
	// Complete fills in derived values.
	Complete() error
	// Validate reports invalid values.
	Validate() error
}
