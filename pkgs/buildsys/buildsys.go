package buildsys

// BuildSystem captures the shared lifecycle of native build helpers.
// Implementations add their own configuration methods.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// Environment helper.
	Env(key, val string)

	// Lifecycle.
	Configure(args ...string) error
	Build(args ...string) error
	Install(args ...string) error

	// Where artifacts land.
	OutputDir() string
}

// Run executes the full configure/build/install lifecycle and returns the
// artifact directory. The first failing step aborts the sequence.
func Run(bs BuildSystem) (string, error) {
	if err := bs.Configure(); err != nil {
		return "", err
	}
	if err := bs.Build(); err != nil {
		return "", err
	}
	if err := bs.Install(); err != nil {
		return "", err
	}
	return bs.OutputDir(), nil
}
