package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int          { return &v }
func strPtr(v string) *string    { return &v }
func refsPtr(v []string) *[]string { return &v }

func TestAppendImageAutoSelectsFirst(t *testing.T) {
	var s Shot

	s.AppendImage(GeneratedImage{URL: "a", Kind: GenerationTextToImage})
	require.NotNil(t, s.SelectedImage)
	assert.Equal(t, 0, *s.SelectedImage)

	// later appends never move the selection
	s.AppendImage(GeneratedImage{URL: "b", Kind: GenerationTextToImage})
	s.AppendImage(GeneratedImage{URL: "c", Kind: GenerationImageTextToImage})
	assert.Equal(t, 0, *s.SelectedImage)
	assert.Len(t, s.Images, 3)
}

func TestAppendVideoAutoSelectsFirst(t *testing.T) {
	var s Shot

	s.AppendVideo(GeneratedVideo{URL: "a", SourceImageIndex: 0})
	require.NotNil(t, s.SelectedVideo)
	assert.Equal(t, 0, *s.SelectedVideo)

	s.AppendVideo(GeneratedVideo{URL: "b", SourceImageIndex: 1})
	assert.Equal(t, 0, *s.SelectedVideo)
	assert.Len(t, s.Videos, 2)
}

func TestSelectedImageURL(t *testing.T) {
	var s Shot
	_, err := s.SelectedImageURL()
	assert.Error(t, err)

	s.AppendImage(GeneratedImage{URL: "first", Kind: GenerationTextToImage})
	s.AppendImage(GeneratedImage{URL: "second", Kind: GenerationTextToImage})

	url, err := s.SelectedImageURL()
	require.NoError(t, err)
	assert.Equal(t, "first", url)

	s.SelectedImage = intPtr(1)
	url, err = s.SelectedImageURL()
	require.NoError(t, err)
	assert.Equal(t, "second", url)
}

func twoShotProject() *Project {
	return &Project{
		ID: "proj_test",
		Shots: ShotList{
			{Index: 0, PromptToImage: "p0i", PromptToVideo: "p0v", Images: []GeneratedImage{}, Videos: []GeneratedVideo{}},
			{Index: 1, PromptToImage: "p1i", PromptToVideo: "p1v", Images: []GeneratedImage{}, Videos: []GeneratedVideo{}},
		},
	}
}

func TestApplyShotPatchesPromptEdit(t *testing.T) {
	p := twoShotProject()

	ApplyShotPatches(p, []ShotPatch{
		{Index: 0, PromptToImage: strPtr("edited prompt")},
	})

	assert.Equal(t, "edited prompt", p.Shots[0].PromptToImage)
	assert.True(t, p.Shots[0].Edited)
	assert.False(t, p.Shots[1].Edited)

	// edited flag is sticky
	ApplyShotPatches(p, []ShotPatch{
		{Index: 0, PromptToVideo: strPtr("new video prompt")},
	})
	assert.True(t, p.Shots[0].Edited)
}

func TestApplyShotPatchesIgnoresUnknownIndex(t *testing.T) {
	p := twoShotProject()

	ApplyShotPatches(p, []ShotPatch{
		{Index: 5, PromptToImage: strPtr("nope")},
		{Index: -1, PromptToImage: strPtr("nope")},
		{Index: 1, PromptToImage: strPtr("yes")},
	})

	assert.Equal(t, "p0i", p.Shots[0].PromptToImage)
	assert.Equal(t, "yes", p.Shots[1].PromptToImage)
}

func TestApplyShotPatchesSelectionBounds(t *testing.T) {
	p := twoShotProject()
	p.Shots[0].AppendImage(GeneratedImage{URL: "a", Kind: GenerationTextToImage})
	p.Shots[0].AppendImage(GeneratedImage{URL: "b", Kind: GenerationTextToImage})

	// valid repoint
	ApplyShotPatches(p, []ShotPatch{{Index: 0, SelectedImage: intPtr(1)}})
	require.NotNil(t, p.Shots[0].SelectedImage)
	assert.Equal(t, 1, *p.Shots[0].SelectedImage)

	// out-of-range selection is ignored, selection invariant holds
	ApplyShotPatches(p, []ShotPatch{{Index: 0, SelectedImage: intPtr(7)}})
	assert.Equal(t, 1, *p.Shots[0].SelectedImage)

	// selecting into an empty videos array is ignored
	ApplyShotPatches(p, []ShotPatch{{Index: 0, SelectedVideo: intPtr(0)}})
	assert.Nil(t, p.Shots[0].SelectedVideo)
}

func TestApplyShotPatchesReplacesCharacterRefs(t *testing.T) {
	p := twoShotProject()
	p.Shots[0].CharacterRefs = []string{"A", "B"}

	ApplyShotPatches(p, []ShotPatch{{Index: 0, CharacterRefs: refsPtr([]string{"C"})}})
	assert.Equal(t, []string{"C"}, p.Shots[0].CharacterRefs)
}

func TestShotListScanRoundTrip(t *testing.T) {
	list := ShotList{shotWith(2, 1)}
	val, err := list.Value()
	require.NoError(t, err)

	var decoded ShotList
	require.NoError(t, decoded.Scan(val))
	require.Len(t, decoded, 1)
	assert.Len(t, decoded[0].Images, 2)
	assert.Len(t, decoded[0].Videos, 1)
	require.NotNil(t, decoded[0].SelectedImage)
	assert.Equal(t, 0, *decoded[0].SelectedImage)

	var empty ShotList
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
}
