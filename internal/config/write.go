package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// starterManifest is the commented template written by `smelt init`.
const starterManifest = `# smelt manifest — see 'smelt build' and 'smelt run'.
version: "1"

image:
  base: %s
  name: %s

# maintainer: you@example.org

# Execution root inside the image. Step commands run here.
workdir: /opt/smelt

# Ordered provisioning steps. Each stages one artifact into the build
# context and runs one command against it. A step must succeed before
# the next one starts; the first failure aborts the run and no image
# is produced.
steps: []
#  - name: install-deps
#    artifact: scripts/install_dependencies.sh
#    command: ./install_dependencies.sh
#  - name: install-runtime
#    artifact: scripts/install_runtime.sh
#    command: ./install_runtime.sh
`

// WriteStarterManifest writes a starter smelt.yaml into dir.
// Fails if a manifest already exists.
func WriteStarterManifest(dir, baseImage, imageName string) (string, error) {
	if baseImage == "" {
		baseImage = DefaultBaseImage
	}
	if imageName == "" {
		imageName = "smelt/" + filepath.Base(dir)
	}

	path := filepath.Join(dir, ManifestFileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("manifest already exists at %s", path)
	}

	content := fmt.Sprintf(starterManifest, baseImage, imageName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
