package render

import (
	"github.com/showforge/showforge/internal/models"
)

// DispatchRequest is the payload handed to the external render service.
// The call's only job is handoff; completion arrives later via callback.
type DispatchRequest struct {
	EpisodeID   string `json:"episode_id"`
	QueueJobID  string `json:"queue_job_id"` // Correlation id echoed back in callbacks
	ShowName    string `json:"show_name"`
	EpisodeNum  int    `json:"episode_number"`
	Title       string `json:"title"`
	Script      string `json:"script"`
	Moral       string `json:"moral"`

	Storyboard []models.Shot         `json:"storyboard"`
	Characters []CharacterBundle     `json:"characters"`
	Settings   models.RenderSettings `json:"settings"`

	CallbackURL    string `json:"callback_url"`
	CallbackSecret string `json:"callback_secret"`
}

// CharacterBundle is the denormalized per-character payload: prompts,
// seed, reference image, voice, and flattened emotion references.
// Assembly is side-effect free and recomputed at every dispatch.
type CharacterBundle struct {
	Name              string        `json:"name"`
	PromptPositive    string        `json:"prompt_positive"`
	PromptNegative    string        `json:"prompt_negative"`
	Seed              *int64        `json:"seed,omitempty"`
	ReferenceImageURL string        `json:"reference_image_url,omitempty"`
	Voice             string        `json:"voice,omitempty"`
	EmotionRefs       []EmotionRef  `json:"emotion_refs,omitempty"`
}

// EmotionRef pairs an emotion tag with its reference image
type EmotionRef struct {
	Emotion  string `json:"emotion"`
	ImageURL string `json:"image_url"`
}

// BuildCharacterBundles flattens a show's active characters for the
// render payload
func BuildCharacterBundles(show *models.Show) []CharacterBundle {
	active := show.ActiveCharacters()
	bundles := make([]CharacterBundle, 0, len(active))
	for _, c := range active {
		bundle := CharacterBundle{
			Name:              c.Name,
			PromptPositive:    c.PromptPositive,
			PromptNegative:    c.PromptNegative,
			Seed:              c.Seed,
			ReferenceImageURL: c.ReferenceImageURL,
			Voice:             c.Voice,
		}
		for emotion, url := range c.EmotionRefs {
			bundle.EmotionRefs = append(bundle.EmotionRefs, EmotionRef{Emotion: emotion, ImageURL: url})
		}
		bundles = append(bundles, bundle)
	}
	return bundles
}
