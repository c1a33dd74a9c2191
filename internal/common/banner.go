package common

import (
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner
func PrintBanner(version string) {
	b := banner.New().
		SetStyle(banner.StyleRound).
		SetBorderColor(banner.ColorCyan)
	b.PrintTopLine()
	b.PrintCenteredText("ShowForge " + version)
	b.PrintBottomLine()
}
