package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/daylog/internal/flagx"
)

var flagNames = []string{"-m", "-a", "-i", "-f", "-k", "-u", "-o", "-n", "-p", "-v"}

// Positional drops the configuration flags (including -c/-config) from args,
// leaving subcommand names and their arguments.
func Positional(args []string) []string {
	return flagx.StripArgs(args, append([]string{"-c", "-config"}, flagNames...))
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-m string   mode: local or remote
//	-a string   address and port of the backend server
//	-i int      online check interval in seconds
//	-f string   path of the local SQLite file
//	-k string   LLM API key
//	-u string   LLM base URL
//	-o string   LLM model
//	-n int      summary poll attempts
//	-p int      summary poll interval in seconds
//	-v string   log level
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	mode := fs.String("m", string(cfg.Mode), "mode: local or remote")
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.LLMAPIKey, "k", cfg.LLMAPIKey, "LLM API key")
	fs.StringVar(&cfg.LLMBaseURL, "u", cfg.LLMBaseURL, "LLM base URL")
	fs.StringVar(&cfg.LLMModel, "o", cfg.LLMModel, "LLM model")
	fs.IntVar(&cfg.PollAttempts, "n", cfg.PollAttempts, "summary poll attempts")
	pollInterval := fs.Int("p", int(cfg.PollInterval.Seconds()), "summary poll interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Mode = Mode(*mode)
	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
}
