package hull

import (
	"fmt"
	"strings"
)

// DockerError represents a user-friendly Docker error with remediation
// steps. It wraps underlying Docker SDK errors with context and actionable
// guidance.
type DockerError struct {
	Op        string   // Operation that failed (e.g. "connect", "build", "run")
	Err       error    // Underlying error
	Message   string   // Human-readable message
	NextSteps []string // Suggested remediation steps
}

func (e *DockerError) Error() string {
	return e.Message
}

func (e *DockerError) Unwrap() error {
	return e.Err
}

// FormatUserError formats the error for display to users with next steps.
func (e *DockerError) FormatUserError() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Message))

	if e.Err != nil {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", e.Err.Error()))
	}

	if len(e.NextSteps) > 0 {
		sb.WriteString("\nNext Steps:\n")
		for i, step := range e.NextSteps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	return sb.String()
}

// Common error constructors

// ErrDockerNotRunning returns an error for when the Docker daemon is not
// accessible.
func ErrDockerNotRunning(err error) *DockerError {
	return &DockerError{
		Op:      "connect",
		Err:     err,
		Message: "Cannot connect to Docker daemon",
		NextSteps: []string{
			"Ensure Docker is installed",
			"Start Docker Desktop (macOS/Windows) or run 'sudo systemctl start docker' (Linux)",
			"Check if Docker socket is accessible: ls -la /var/run/docker.sock",
			"Verify your user is in the docker group: groups $USER",
		},
	}
}

// ErrImageNotFound returns an error for when an image cannot be found.
func ErrImageNotFound(image string, err error) *DockerError {
	return &DockerError{
		Op:      "pull",
		Err:     err,
		Message: fmt.Sprintf("Image '%s' not found", image),
		NextSteps: []string{
			"Check the image name and tag are correct",
			"Verify you have network access to the registry",
			"Try pulling manually: docker pull " + image,
		},
	}
}

// ErrImageBuildFailed returns an error for when an image build fails.
func ErrImageBuildFailed(err error) *DockerError {
	return &DockerError{
		Op:      "build",
		Err:     err,
		Message: "Failed to build image",
		NextSteps: []string{
			"Verify all step artifacts exist in the build context",
			"Review the build output for the failing step",
			"Check the base image reference is resolvable",
		},
	}
}

// ErrImagePullFailed returns an error for when pulling an image fails.
func ErrImagePullFailed(image string, err error) *DockerError {
	return &DockerError{
		Op:      "pull",
		Err:     err,
		Message: fmt.Sprintf("Failed to pull image '%s'", image),
		NextSteps: []string{
			"Check the image name and tag are correct",
			"Verify you have network access to the registry",
		},
	}
}

// ErrContainerNotFound returns an error for when a container cannot be found.
func ErrContainerNotFound(name string) *DockerError {
	return &DockerError{
		Op:      "find",
		Err:     nil,
		Message: fmt.Sprintf("Container '%s' not found", name),
		NextSteps: []string{
			"Check if the container was started",
			"Check running containers: docker ps",
			"Check all containers: docker ps -a",
		},
	}
}

// ErrContainerCreateFailed returns an error for when container creation fails.
func ErrContainerCreateFailed(err error) *DockerError {
	return &DockerError{
		Op:      "create",
		Err:     err,
		Message: "Failed to create container",
		NextSteps: []string{
			"Check if the image exists",
			"Check for conflicting container names",
			"Review Docker daemon logs for details",
		},
	}
}

// ErrContainerStartFailed returns an error for when a container fails to start.
func ErrContainerStartFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "start",
		Err:     err,
		Message: fmt.Sprintf("Failed to start container '%s'", name),
		NextSteps: []string{
			"Check container logs: docker logs " + name,
			"Verify the image is valid",
		},
	}
}

// ErrContainerRemoveFailed returns an error for when container removal fails.
func ErrContainerRemoveFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "remove",
		Err:     err,
		Message: fmt.Sprintf("Failed to remove container '%s'", name),
		NextSteps: []string{
			"Check if the container exists",
			"Verify the container is not running",
		},
	}
}

// ErrAttachFailed returns an error for when attaching to a container fails.
func ErrAttachFailed(err error) *DockerError {
	return &DockerError{
		Op:      "attach",
		Err:     err,
		Message: "Failed to attach to container",
		NextSteps: []string{
			"Verify the container is running",
			"Check if the container has a TTY allocated",
		},
	}
}

// ErrContainerWaitFailed returns an error for when waiting on a container fails.
func ErrContainerWaitFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "wait",
		Err:     err,
		Message: fmt.Sprintf("Failed to wait for container '%s'", name),
		NextSteps: []string{
			"Check if the container exists: docker ps -a",
			"Verify Docker daemon is running",
		},
	}
}

// ErrContainerResizeFailed returns an error for when resizing a container
// TTY fails.
func ErrContainerResizeFailed(name string, err error) *DockerError {
	return &DockerError{
		Op:      "resize",
		Err:     err,
		Message: fmt.Sprintf("Failed to resize TTY for container '%s'", name),
		NextSteps: []string{
			"Check if the container is running: docker ps",
			"Verify the container has a TTY attached",
		},
	}
}

// ErrContainerListFailed returns an error for when listing containers fails.
func ErrContainerListFailed(err error) *DockerError {
	return &DockerError{
		Op:      "list",
		Err:     err,
		Message: "Failed to list containers",
		NextSteps: []string{
			"Check if Docker daemon is running",
			"Verify Docker socket is accessible",
		},
	}
}

// ErrImageListFailed returns an error for when listing images fails.
func ErrImageListFailed(err error) *DockerError {
	return &DockerError{
		Op:      "image_list",
		Err:     err,
		Message: "Failed to list images",
		NextSteps: []string{
			"Check if Docker daemon is running",
			"Verify Docker socket is accessible",
		},
	}
}

// ErrImageRemoveFailed returns an error for when removing an image fails.
func ErrImageRemoveFailed(image string, err error) *DockerError {
	return &DockerError{
		Op:      "image_remove",
		Err:     err,
		Message: fmt.Sprintf("Failed to remove image '%s'", image),
		NextSteps: []string{
			"Check if containers are using this image: docker ps -a",
			"Try force removal: docker rmi -f " + image,
		},
	}
}
