package service

import (
	"context"
	"fmt"
	"log"
	"path"

	"storyboard-server/models"
)

// CharacterRef 角色引用（用于图文生图）
type CharacterRef struct {
	Identifier string `json:"identifier"`
	ImageURL   string `json:"imageUrl"`
}

// ArtifactMirror copies a generated artifact into owned storage and returns
// the URL to record instead of the backend's.
type ArtifactMirror interface {
	Mirror(ctx context.Context, sourceURL, objectName string) (string, error)
}

// Coordinator 生成协调器：校验前置条件，调用外部后端，按追加/选择协议写回
//
// Each operation mutates the project only after the backend reports success;
// a backend failure leaves the stored document untouched. The append itself
// happens inside the store's serialized Update, so concurrent generations on
// the same project never lose an append.
type Coordinator struct {
	Store   models.ProjectStore
	Backend GenerationBackend
	Mirror  ArtifactMirror // optional, nil keeps backend URLs as-is
}

func NewCoordinator(store models.ProjectStore, backend GenerationBackend) *Coordinator {
	return &Coordinator{Store: store, Backend: backend}
}

// GeneratePrompts calls the analysis backend and initializes the shot
// sequence from the returned prompts. A repeat call on a project that
// already has shots replaces the whole sequence (deliberate reset).
// Returns the number of shots created.
func (c *Coordinator) GeneratePrompts(ctx context.Context, projectID, version, instruction, systemPrompt string) (int, error) {
	p, err := c.Store.Get(ctx, projectID)
	if err != nil {
		return 0, err
	}

	seeds, err := c.Backend.AnalyzeSource(ctx, p.SourceURL, instruction, systemPrompt)
	if err != nil {
		return 0, err
	}

	// Shot index is the array position regardless of what the backend sent,
	// keeping the sequence dense and ordered.
	shots := make(models.ShotList, 0, len(seeds))
	for i, seed := range seeds {
		shots = append(shots, models.Shot{
			Index:         i,
			PromptToImage: seed.PromptToImage,
			PromptToVideo: seed.PromptToVideo,
			Images:        []models.GeneratedImage{},
			Videos:        []models.GeneratedVideo{},
		})
	}

	_, err = c.Store.Update(ctx, projectID, func(p *models.Project) error {
		p.Shots = shots
		p.PromptVersion = version
		p.RefreshStatus()
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("project %s: initialized %d shots (prompt %s)", projectID, len(shots), version)
	return len(shots), nil
}

// GenerateImage calls the image backend for one shot and appends the result.
// With character refs the call is conditioned on the first ref's image and
// the shot's stored refs are replaced by the identifiers used (last call
// wins); without refs it is a plain text-to-image call.
func (c *Coordinator) GenerateImage(ctx context.Context, projectID string, shotIndex int, refs []CharacterRef) (models.GeneratedImage, error) {
	var img models.GeneratedImage

	p, err := c.Store.Get(ctx, projectID)
	if err != nil {
		return img, err
	}
	if shotIndex < 0 || shotIndex >= len(p.Shots) {
		return img, &models.PreconditionError{Msg: fmt.Sprintf("shot index %d out of range", shotIndex)}
	}
	shot := p.Shots[shotIndex]

	kind := models.GenerationTextToImage
	conditioning := ""
	if len(refs) > 0 {
		kind = models.GenerationImageTextToImage
		conditioning = refs[0].ImageURL
	}

	url, err := c.Backend.GenerateImage(ctx, conditioning, shot.PromptToImage)
	if err != nil {
		return img, err
	}
	url, err = c.mirror(ctx, url, fmt.Sprintf("projects/%s/shots/%d/images", projectID, shotIndex))
	if err != nil {
		return img, err
	}

	img = models.GeneratedImage{URL: url, Kind: kind}

	_, err = c.Store.Update(ctx, projectID, func(p *models.Project) error {
		if shotIndex >= len(p.Shots) {
			return &models.PreconditionError{Msg: fmt.Sprintf("shot index %d out of range", shotIndex)}
		}
		s := &p.Shots[shotIndex]
		s.AppendImage(img)
		if len(refs) > 0 {
			ids := make([]string, 0, len(refs))
			for _, r := range refs {
				ids = append(ids, r.Identifier)
			}
			s.CharacterRefs = ids
		}
		p.RefreshStatus()
		return nil
	})
	if err != nil {
		return models.GeneratedImage{}, err
	}
	return img, nil
}

// GenerateVideo calls the video backend for one shot, conditioned on its
// selected image, and appends the result. Fails with a precondition error
// when no image has been selected yet.
func (c *Coordinator) GenerateVideo(ctx context.Context, projectID string, shotIndex int) (models.GeneratedVideo, error) {
	var vid models.GeneratedVideo

	p, err := c.Store.Get(ctx, projectID)
	if err != nil {
		return vid, err
	}
	if shotIndex < 0 || shotIndex >= len(p.Shots) {
		return vid, &models.PreconditionError{Msg: fmt.Sprintf("shot index %d out of range", shotIndex)}
	}
	shot := p.Shots[shotIndex]

	sourceURL, err := shot.SelectedImageURL()
	if err != nil {
		return vid, &models.PreconditionError{Msg: fmt.Sprintf("shot %d has no selected image", shotIndex)}
	}
	sourceIndex := *shot.SelectedImage

	url, err := c.Backend.GenerateVideo(ctx, sourceURL, shot.PromptToVideo)
	if err != nil {
		return vid, err
	}
	url, err = c.mirror(ctx, url, fmt.Sprintf("projects/%s/shots/%d/videos", projectID, shotIndex))
	if err != nil {
		return vid, err
	}

	vid = models.GeneratedVideo{URL: url, SourceImageIndex: sourceIndex}

	_, err = c.Store.Update(ctx, projectID, func(p *models.Project) error {
		if shotIndex >= len(p.Shots) {
			return &models.PreconditionError{Msg: fmt.Sprintf("shot index %d out of range", shotIndex)}
		}
		p.Shots[shotIndex].AppendVideo(vid)
		p.RefreshStatus()
		return nil
	})
	if err != nil {
		return models.GeneratedVideo{}, err
	}
	return vid, nil
}

// mirror re-homes the artifact when a mirror is configured. A mirror failure
// counts as a backend failure: nothing has been appended yet.
func (c *Coordinator) mirror(ctx context.Context, sourceURL, objectPrefix string) (string, error) {
	if c.Mirror == nil {
		return sourceURL, nil
	}
	objectName := objectPrefix + "/" + path.Base(sourceURL)
	mirrored, err := c.Mirror.Mirror(ctx, sourceURL, objectName)
	if err != nil {
		return "", &models.BackendError{Msg: "mirror artifact failed", Err: err}
	}
	return mirrored, nil
}
