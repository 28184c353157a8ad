package docker

import (
	"context"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
)

// Image is a smelt-managed image with parsed metadata.
type Image struct {
	ID      string
	Name    string
	Base    string
	Hash    string
	Tags    []string
	Created int64
	Size    int64
}

// ListImages returns all smelt-managed images, newest first.
func (c *Client) ListImages(ctx context.Context) ([]Image, error) {
	return c.listImages(ctx, filters.Args{})
}

// ListImagesByName returns managed images built for a manifest image name.
// The name filter is applied by the daemon.
func (c *Client) ListImagesByName(ctx context.Context, name string) ([]Image, error) {
	return c.listImages(ctx, ImageNameFilter(name))
}

func (c *Client) listImages(ctx context.Context, filter filters.Args) ([]Image, error) {
	summaries, err := c.ImageList(ctx, image.ListOptions{All: false, Filters: filter})
	if err != nil {
		return nil, err
	}

	result := make([]Image, 0, len(summaries))
	for _, s := range summaries {
		result = append(result, Image{
			ID:      s.ID,
			Name:    s.Labels[LabelImage],
			Base:    s.Labels[LabelBaseImage],
			Hash:    imageHash(s),
			Tags:    s.RepoTags,
			Created: s.Created,
			Size:    s.Size,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Created > result[j].Created
	})
	return result, nil
}

// imageHash returns the image's content hash label, falling back to the
// content-addressed tag for images whose label set predates it.
func imageHash(s image.Summary) string {
	if h := s.Labels[LabelContentHash]; h != "" {
		return h
	}
	for _, ref := range s.RepoTags {
		if idx := strings.LastIndex(ref, ":"); idx >= 0 {
			if hash, ok := ParseHashTag(ref[idx+1:]); ok {
				return hash
			}
		}
	}
	return ""
}

// RemoveImage removes a managed image by reference.
func (c *Client) RemoveImage(ctx context.Context, ref string, force bool) error {
	_, err := c.ImageRemove(ctx, ref, image.RemoveOptions{
		Force:         force,
		PruneChildren: true,
	})
	return err
}
