package core

import (
	"fmt"
	"os"
)

// ProgressBarWidth is the character width of the terminal progress bar.
const ProgressBarWidth = 50

// PrintProgress redraws the progress bar in place on stdout.
func PrintProgress(progress float64, width int) {
	pos := int(float64(width) * progress)
	fmt.Print("[")
	for j := 0; j < width; j++ {
		switch {
		case j < pos:
			fmt.Print("=")
		case j == pos:
			fmt.Print(">")
		default:
			fmt.Print(" ")
		}
	}
	fmt.Printf("] %d%%\r", int(progress*100.0))
	os.Stdout.Sync()
}
