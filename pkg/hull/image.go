package hull

import (
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
)

// ImageBuild builds an image from a build context.
// The engine's managed and configured labels are merged into the build
// options so every built image is owned by this engine.
func (e *Engine) ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	options.Labels = MergeLabels(
		e.imageLabels(),
		options.Labels,
	)

	resp, err := e.APIClient.ImageBuild(ctx, buildContext, options)
	if err != nil {
		return types.ImageBuildResponse{}, ErrImageBuildFailed(err)
	}
	return resp, nil
}

// ImagePull pulls an image from a registry. Pulled images are external,
// so no managed-label check applies.
func (e *Engine) ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error) {
	rc, err := e.APIClient.ImagePull(ctx, ref, options)
	if err != nil {
		return nil, ErrImagePullFailed(ref, err)
	}
	return rc, nil
}

// ImageTag applies an additional tag to a managed image.
func (e *Engine) ImageTag(ctx context.Context, source, target string) error {
	isManaged, err := e.isManagedImage(ctx, source)
	if err != nil || !isManaged {
		return ErrImageNotFound(source, err)
	}
	return e.APIClient.ImageTag(ctx, source, target)
}

// ImageRemove removes a managed image.
func (e *Engine) ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error) {
	isManaged, err := e.isManagedImage(ctx, imageID)
	if err != nil || !isManaged {
		return nil, ErrImageNotFound(imageID, err)
	}
	return e.APIClient.ImageRemove(ctx, imageID, options)
}

// ImageList lists managed images.
// The managed label filter is automatically injected.
func (e *Engine) ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error) {
	options.Filters = e.injectManagedFilter(options.Filters)
	summaries, err := e.APIClient.ImageList(ctx, options)
	if err != nil {
		return nil, ErrImageListFailed(err)
	}
	return summaries, nil
}

// ImageInspect inspects a managed image.
func (e *Engine) ImageInspect(ctx context.Context, imageRef string) (types.ImageInspect, error) {
	isManaged, err := e.isManagedImage(ctx, imageRef)
	if err != nil || !isManaged {
		return types.ImageInspect{}, ErrImageNotFound(imageRef, err)
	}
	info, _, err := e.APIClient.ImageInspectWithRaw(ctx, imageRef)
	if err != nil {
		return types.ImageInspect{}, ErrImageNotFound(imageRef, err)
	}
	return info, nil
}

// isManagedImage checks if an image carries the managed label.
func (e *Engine) isManagedImage(ctx context.Context, imageRef string) (bool, error) {
	info, _, err := e.APIClient.ImageInspectWithRaw(ctx, imageRef)
	if err != nil {
		return false, ErrImageNotFound(imageRef, err)
	}
	if info.Config == nil {
		return false, nil
	}
	return e.isManagedLabelPresent(info.Config.Labels), nil
}
