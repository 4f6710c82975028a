package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"morph/internal/jobs"
	"morph/internal/submission"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		conversionType string
		batchMode      bool
		wait           bool

		width      int
		height     int
		quality    int
		brightness float64
		contrast   float64
		blur       float64
		sharpen    bool
		grayscale  bool
		normalize  bool
		startTime  float64
		endTime    float64
		fps        int
		bitrate    string
		resolution string
		sampleRate int
		channels   int
	)

	cmd := &cobra.Command{
		Use:   "convert <file> [file...]",
		Short: "Submit files for conversion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer session.close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if wait {
				if err := session.manager.Start(runCtx); err != nil {
					return err
				}
				defer session.manager.Stop()
			}

			// Only flags the user actually set become form fields; the
			// server applies its own defaults for the rest.
			opts := &jobs.ProcessingOptions{}
			flags := cmd.Flags()
			if flags.Changed("width") {
				opts.Width = &width
			}
			if flags.Changed("height") {
				opts.Height = &height
			}
			if flags.Changed("quality") {
				opts.Quality = &quality
			}
			if flags.Changed("brightness") {
				opts.Brightness = &brightness
			}
			if flags.Changed("contrast") {
				opts.Contrast = &contrast
			}
			if flags.Changed("blur") {
				opts.Blur = &blur
			}
			if flags.Changed("sharpen") {
				opts.Sharpen = &sharpen
			}
			if flags.Changed("grayscale") {
				opts.Grayscale = &grayscale
			}
			if flags.Changed("normalize") {
				opts.Normalize = &normalize
			}
			if flags.Changed("start-time") {
				opts.StartTime = &startTime
			}
			if flags.Changed("end-time") {
				opts.EndTime = &endTime
			}
			if flags.Changed("fps") {
				opts.FPS = &fps
			}
			if flags.Changed("bitrate") {
				opts.Bitrate = &bitrate
			}
			if flags.Changed("resolution") {
				opts.Resolution = &resolution
			}
			if flags.Changed("sample-rate") {
				opts.SampleRate = &sampleRate
			}
			if flags.Changed("channels") {
				opts.Channels = &channels
			}
			if opts.IsZero() {
				opts = nil
			}

			accepted, err := session.manager.Submit(runCtx, submission.Request{
				Paths:          args,
				ConversionType: conversionType,
				BatchMode:      batchMode,
				Options:        opts,
			})
			if err != nil {
				return err
			}

			if !wait {
				if ctx.jsonOutput() {
					return writeJSON(cmd, accepted)
				}
				out := cmd.OutOrStdout()
				for _, record := range accepted {
					fmt.Fprintf(out, "Submitted %s (%s)\n", record.InputFilename, record.JobID)
				}
				return nil
			}

			ids := make([]string, 0, len(accepted))
			for _, record := range accepted {
				ids = append(ids, record.JobID)
			}
			if err := session.manager.AwaitTerminal(runCtx, ids); err != nil {
				return err
			}

			final := make([]jobs.Job, 0, len(ids))
			for _, id := range ids {
				if record, ok := session.manager.Job(id); ok {
					final = append(final, record)
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, final)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderJobsTable(final))
			return nil
		},
	}

	cmd.Flags().StringVarP(&conversionType, "type", "t", "", "Conversion type (e.g. pdf-to-docx, image-process)")
	cmd.Flags().BoolVar(&batchMode, "batch", false, "Submit all files in a single batch request")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until every submitted job finishes")

	cmd.Flags().IntVar(&width, "width", 0, "Output width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "Output height in pixels")
	cmd.Flags().IntVar(&quality, "quality", 0, "Output quality (1-100)")
	cmd.Flags().Float64Var(&brightness, "brightness", 0, "Brightness adjustment")
	cmd.Flags().Float64Var(&contrast, "contrast", 0, "Contrast adjustment")
	cmd.Flags().Float64Var(&blur, "blur", 0, "Blur radius")
	cmd.Flags().BoolVar(&sharpen, "sharpen", false, "Sharpen the image")
	cmd.Flags().BoolVar(&grayscale, "grayscale", false, "Convert to grayscale")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Normalize audio levels")
	cmd.Flags().Float64Var(&startTime, "start-time", 0, "Clip start in seconds")
	cmd.Flags().Float64Var(&endTime, "end-time", 0, "Clip end in seconds")
	cmd.Flags().IntVar(&fps, "fps", 0, "Output frame rate")
	cmd.Flags().StringVar(&bitrate, "bitrate", "", "Output bitrate (e.g. 192k)")
	cmd.Flags().StringVar(&resolution, "resolution", "", "Output resolution (e.g. 1280x720)")
	cmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "Audio sample rate in Hz")
	cmd.Flags().IntVar(&channels, "channels", 0, "Audio channel count")

	_ = cmd.MarkFlagRequired("type")
	return cmd
}
