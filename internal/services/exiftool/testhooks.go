package exiftool

// newSession and runCommand are package-level so tests can replace them.
var (
	newSession               = defaultSession
	runCommand CommandRunner = defaultRunner
)

// SetSessionFactoryForTests overrides session construction during tests.
func SetSessionFactoryForTests(fn func(binary string) (Session, error)) func() {
	previous := newSession
	newSession = fn
	return func() {
		newSession = previous
	}
}

// SetRunnerForTests overrides one-shot exiftool invocations during tests.
func SetRunnerForTests(fn CommandRunner) func() {
	previous := runCommand
	runCommand = fn
	return func() {
		runCommand = previous
	}
}
