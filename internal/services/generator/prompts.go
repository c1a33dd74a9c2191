package generator

import (
	"fmt"
	"strings"

	"github.com/showforge/showforge/internal/interfaces"
)

const systemPrompt = `You are a writers-room assistant for short-form animated shows.
Follow the requested output format exactly. Do not add commentary.`

// buildMoralPrompt asks for a one-line moral, avoiding morals the show
// has already used
func buildMoralPrompt(gc *interfaces.GenerationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Show: %s\nPremise: %s\n\n", gc.Show.Name, gc.Show.Premise)
	if len(gc.UsedMorals) > 0 {
		b.WriteString("Morals already covered (do NOT reuse or paraphrase):\n")
		for _, m := range gc.UsedMorals {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Write one new moral for episode %d. Respond with the moral as a single sentence, nothing else.", gc.EpisodeNumber)
	return b.String()
}

func buildTitlePrompt(gc *interfaces.GenerationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Show: %s\nPremise: %s\nEpisode moral: %s\n\n", gc.Show.Name, gc.Show.Premise, gc.Moral)
	b.WriteString("Write a short episode title (max 8 words). Respond with the title only.")
	return b.String()
}

func buildScriptPrompt(gc *interfaces.GenerationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Show: %s\nPremise: %s\nEpisode %d: %q\nMoral: %s\n\n", gc.Show.Name, gc.Show.Premise, gc.EpisodeNumber, gc.Title, gc.Moral)

	if len(gc.Characters) > 0 {
		b.WriteString("Characters:\n")
		for _, c := range gc.Characters {
			fmt.Fprintf(&b, "- %s", c.Name)
			if c.Voice != "" {
				fmt.Fprintf(&b, " (voice: %s)", c.Voice)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(gc.PriorSummaries) > 0 {
		b.WriteString("Recent episode summaries for continuity (newest first):\n")
		for i, s := range gc.PriorSummaries {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
		b.WriteString("\n")
	}

	target := 3
	if gc.Production != nil && gc.Production.TargetMinutes > 0 {
		target = gc.Production.TargetMinutes
	}
	fmt.Fprintf(&b, "Write the full dialogue script for a roughly %d minute episode delivering the moral naturally. Respond with the script only.", target)
	return b.String()
}

func buildSummaryPrompt(gc *interfaces.GenerationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Episode %d of %s: %q\n\nScript:\n%s\n\n", gc.EpisodeNumber, gc.Show.Name, gc.Title, gc.Script)
	b.WriteString("Summarize this episode in 2-3 sentences for use as continuity context in future episodes. Respond with the summary only.")
	return b.String()
}

func buildStoryboardPrompt(gc *interfaces.GenerationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Show: %s\nVisual style: %s\nEpisode %d: %q\n\nScript:\n%s\n\n", gc.Show.Name, gc.Show.StylePrompt, gc.EpisodeNumber, gc.Title, gc.Script)

	if len(gc.Characters) > 0 {
		b.WriteString("Characters and their image prompts:\n")
		for _, c := range gc.Characters {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.PromptPositive)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Break the script into a storyboard. Respond with JSON only, no prose, in this exact shape:
{"shots":[{"scene":1,"shot_index":1,"duration_sec":4,"camera":"","focus_character":"","action":"","emotion":"","music_mood":"","prompt_positive":"","prompt_negative":""}]}
Number scenes from 1 and shots from 1 within each scene. Every shot needs a non-empty prompt_positive.`)
	return b.String()
}
