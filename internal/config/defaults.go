package config

const (
	// ManifestFileName is the default manifest file name.
	ManifestFileName = "smelt.yaml"

	// IgnoreFileName is the default ignore file name for build contexts.
	IgnoreFileName = ".smeltignore"

	// CurrentVersion is the manifest schema version this build understands.
	CurrentVersion = "1"

	// DefaultBaseImage is used when the manifest omits image.base.
	DefaultBaseImage = "ubuntu:24.04"

	// DefaultWorkdir is the execution root inside the image.
	DefaultWorkdir = "/opt/smelt"

	// DefaultShell is the interactive command for `smelt run`.
	DefaultShell = "/bin/bash"
)

// DefaultManifest returns a manifest populated with defaults. Loaded
// manifests are merged over these values.
func DefaultManifest() *Manifest {
	return &Manifest{
		Version: CurrentVersion,
		Image: ImageConfig{
			Base: DefaultBaseImage,
		},
		Workdir: DefaultWorkdir,
		Shell:   DefaultShell,
	}
}
