package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cutline/internal/logging"
	"cutline/internal/media"
	"cutline/internal/project"
	"cutline/internal/source"
	"cutline/internal/timeline"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the saved project's media library and timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}

			store, err := project.Open(cfg)
			if err != nil {
				return fmt.Errorf("open project: %w", err)
			}
			defer store.Close()

			library := media.NewLibrary(logger)
			tl := timeline.NewStore(logger)
			if err := store.Load(cmd.Context(), library, tl); err != nil {
				return fmt.Errorf("load project: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderMediaTable(library, colorize))
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTimelineTable(library, tl, colorize))
			return nil
		},
	}
}

func renderMediaTable(library *media.Library, colorize bool) string {
	headers := []string{"Name", "Type", "Status", "Source", "Location", "Size", "Frames"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight}

	items := library.Items()
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Name,
			string(item.Type),
			colorizeStatus(string(item.Status), colorize),
			string(item.Source.Kind),
			sourceLocation(item.Source),
			formatSize(item.Source.SizeBytes),
			formatFrames(item.DurationFrames),
		})
	}
	return renderTable(headers, rows, aligns)
}

func renderTimelineTable(library *media.Library, tl *timeline.Store, colorize bool) string {
	headers := []string{"Track", "Media", "Timeline", "Clip", "Status"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}

	var rows [][]string
	for _, track := range tl.Tracks() {
		placements := tl.ItemsOnTrack(track.ID)
		if len(placements) == 0 {
			rows = append(rows, []string{trackLabel(track), "(empty)", "", "", ""})
			continue
		}
		for _, item := range placements {
			mediaName := item.MediaItemID
			if mediaItem := library.Get(item.MediaItemID); mediaItem != nil {
				mediaName = mediaItem.Name
			}
			rows = append(rows, []string{
				trackLabel(track),
				mediaName,
				formatRange(item.Range.TimelineStart, item.Range.TimelineEnd),
				formatRange(item.Range.ClipStart, item.Range.ClipEnd),
				colorizeStatus(string(item.Status), colorize),
			})
		}
	}
	return renderTable(headers, rows, aligns)
}

func trackLabel(track *timeline.Track) string {
	label := track.Name
	if !track.Visible {
		label += " (hidden)"
	}
	if track.Muted {
		label += " (muted)"
	}
	return label
}

func sourceLocation(src *source.Data) string {
	if src.FilePath != "" {
		return src.FilePath
	}
	return src.ResolvedURL
}

func formatRange(start, end int64) string {
	return strconv.FormatInt(start, 10) + ".." + strconv.FormatInt(end, 10)
}

func formatFrames(frames int64) string {
	if frames <= 0 {
		return "-"
	}
	return strconv.FormatInt(frames, 10)
}

func formatSize(size int64) string {
	if size <= 0 {
		return "-"
	}
	const unit = 1024
	if size < unit {
		return strconv.FormatInt(size, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGT"[exp])
}
