package pipeline

import (
	"github.com/showforge/showforge/internal/models"
)

// MergeRenderSettings builds the render settings snapshot for a job.
// Precedence, lowest to highest: computed production defaults, the
// show's persisted production profile, then in-flight overrides.
// Recognized override keys adjust typed fields; everything else passes
// through in Extra for forward compatibility.
func MergeRenderSettings(profile *models.ProductionProfile, stylePrompt string, shots []models.Shot, overrides map[string]interface{}) models.RenderSettings {
	prod := models.DefaultProductionProfile()
	if profile != nil {
		p := *profile
		prod = &p
	}

	settings := models.RenderSettings{
		Version:     models.RenderSettingsVersion,
		Storyboard:  shots,
		StylePrompt: stylePrompt,
		Production:  *prod,
		Audio:       models.DefaultAudioSettings(prod),
	}

	for key, value := range overrides {
		switch key {
		case "style_prompt":
			if s, ok := value.(string); ok {
				settings.StylePrompt = s
			}
		case "frames_enabled":
			if b, ok := value.(bool); ok {
				settings.Production.FramesEnabled = b
			}
		case "music_enabled":
			if b, ok := value.(bool); ok {
				settings.Production.MusicEnabled = b
				settings.Audio.MusicEnabled = b
			}
		case "sfx_enabled":
			if b, ok := value.(bool); ok {
				settings.Production.SfxEnabled = b
				settings.Audio.SfxEnabled = b
			}
		case "voice_enabled":
			if b, ok := value.(bool); ok {
				settings.Audio.VoiceEnabled = b
			}
		case "music_volume":
			if f, ok := value.(float64); ok {
				settings.Audio.MusicVolume = f
			}
		case "resolution":
			if s, ok := value.(string); ok {
				settings.Production.Resolution = s
			}
		default:
			if settings.Extra == nil {
				settings.Extra = make(map[string]interface{})
			}
			settings.Extra[key] = value
		}
	}

	return settings
}
