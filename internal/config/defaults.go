package config

const (
	defaultStateDir              = "~/.local/share/takeoutfix"
	defaultLogDir                = "~/.local/share/takeoutfix/logs"
	defaultOutputDir             = "output"
	defaultExiftoolBinary        = "exiftool"
	defaultExiftoolTimeout       = 120
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultHistoryRetentionLimit = 200
)

// DefaultExcludedSidecars lists sidecar names the takeout exporter writes for
// account-level data rather than for a media file.
var DefaultExcludedSidecars = []string{
	"print-subscriptions.json",
	"shared_album_comments.json",
	"user-generated-memory-titles.json",
}

// DefaultCopySkipExtensions lists extensions that are never copied into the
// flat output directory.
var DefaultCopySkipExtensions = []string{"json", "html", "xml", "zip"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Exiftool: Exiftool{
			Binary:          defaultExiftoolBinary,
			TimeoutSeconds:  defaultExiftoolTimeout,
			RepairOnFailure: true,
			SyncFileDates:   true,
		},
		Takeout: Takeout{
			ExcludedSidecars:   append([]string(nil), DefaultExcludedSidecars...),
			CopySkipExtensions: append([]string(nil), DefaultCopySkipExtensions...),
			HaltOnError:        false,
		},
		History: History{
			Enabled:      true,
			KeepLastRuns: defaultHistoryRetentionLimit,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
