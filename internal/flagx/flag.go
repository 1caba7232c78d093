// Package flagx contains helpers for components that parse only a subset of
// the process command line.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subset of args that belongs to allowedFlags,
// keeping each flag's value. Both "-c conf.json" and "-c=conf.json" forms are
// recognised; a following token that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") {
			if name, _, ok := strings.Cut(arg, "="); ok {
				if _, keep := allowed[name]; keep {
					filtered = append(filtered, arg)
				}
				continue
			}
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFileFlags inspects command-line arguments and extracts the config file
// path provided via the -c or -config flags. The file may be JSON or YAML.
//
// Only these flags are parsed; other arguments are ignored. This allows the
// application to safely parse its own flags without interfering with flags
// defined by other packages.
//
// If neither -c nor -config is present, an empty string is returned.
func ConfigFileFlags() string {
	return ConfigFileFlagsFrom(os.Args[1:])
}

// ConfigFileFlagsFrom is ConfigFileFlags over an explicit argument list.
func ConfigFileFlagsFrom(argv []string) string {
	var config string

	args := FilterArgs(argv, []string{"-c", "-config"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
