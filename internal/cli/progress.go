package cli

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// NewBatchProgress creates a progress bar tracking classification batches.
func NewBatchProgress(w io.Writer, totalBatches int) *progressbar.ProgressBar {
	return progressbar.NewOptions(totalBatches,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Classifying deals...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
