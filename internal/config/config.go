// Package config parses the engine's CLI surface and environment variables
// into one immutable Config, the way the corpus's appserver entrypoint
// layers pflag defaults over explicit flags.
package config

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

// Config is the fully resolved process configuration for one engine run.
type Config struct {
	SocketPath      string
	PluginPath      string
	NoSpawn         bool
	RunSeconds      int
	SocketPrefix    string
	UIShmName       string
	TestMode        bool
	PatcherParallel bool
	PatcherThreads  int
	SchedulerLog    bool
}

// Load parses args (normally os.Args[1:]) for the --socket, --plugin,
// --no-spawn and --run-seconds flags and reads every other field from
// environment variables, returning the resolved Config. No flag overrides
// an environment variable.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("dawengine", pflag.ContinueOnError)

	socketPath := fs.String("socket", "", "Unix control-socket path for the plugin host child process.")
	pluginPath := fs.String("plugin", "", "Path to the plugin host binary to launch.")
	noSpawn := fs.Bool("no-spawn", false, "Do not launch a host child process; connect to one already listening.")
	runSeconds := fs.Int("run-seconds", 0, "Exit automatically after N seconds (0 = run until signaled).")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		SocketPath:      *socketPath,
		PluginPath:      *pluginPath,
		NoSpawn:         *noSpawn,
		RunSeconds:      *runSeconds,
		SocketPrefix:    envOr("DAW_HOST_SOCKET_PREFIX", "/tmp/dawengine"),
		UIShmName:       envOr("DAW_UI_SHM_NAME", "/dawengine-ui"),
		TestMode:        envBool("DAW_ENGINE_TEST_MODE", false),
		PatcherParallel: envBool("DAW_PATCHER_PARALLEL", false),
		PatcherThreads:  envInt("DAW_PATCHER_PARALLEL_THREADS", 4),
		SchedulerLog:    envBool("DAW_SCHEDULER_LOG", false),
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// ExitSetupFailure is the exit code used for a top-level track setup
// failure, such as the host process crashing on connect.
const ExitSetupFailure = 1
