// Command firmsstats parses a saved FIRMS area CSV with the service's parser
// and prints classification and discard statistics. It is used to tune the
// flare thresholds and to check fixtures before they go into tests.
//
// Usage:
//
//	go run ./cmd/firmsstats testdata/conus_snpp.csv
//	go run ./cmd/firmsstats --lat 34.1 --lon -117.6 --radius 50 --exclude-flares nearby.csv
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
)

type statsFlags struct {
	lat, lon        float64
	radius          float64
	excludeFlares   bool
	predictableOnly bool
	flare           domain.FlareThresholds
	asJSON          bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := statsFlags{flare: domain.DefaultFlareThresholds()}

	cmd := &cobra.Command{
		Use:          "firmsstats <file.csv>",
		Short:        "Print detection statistics for a FIRMS area CSV file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			opts, err := f.parseOptions(cmd)
			if err != nil {
				return err
			}
			stats := collectStats(domain.ParseFeedCSV(string(data), opts), opts)
			if f.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&f.lat, "lat", 0, "reference latitude for distance filtering")
	fl.Float64Var(&f.lon, "lon", 0, "reference longitude for distance filtering")
	fl.Float64Var(&f.radius, "radius", 100, "radius in miles around --lat/--lon")
	fl.BoolVar(&f.excludeFlares, "exclude-flares", false, "drop likely gas flares")
	fl.BoolVar(&f.predictableOnly, "predictable-only", false, "keep only predictable detections")
	fl.Float64Var(&f.flare.MaxFRP, "flare-max-frp", f.flare.MaxFRP, "flare heuristic FRP ceiling (MW)")
	fl.Float64Var(&f.flare.MaxBrightness, "flare-max-brightness", f.flare.MaxBrightness, "flare heuristic brightness ceiling (K)")
	fl.Float64Var(&f.flare.MaxConfidence, "flare-max-confidence", f.flare.MaxConfidence, "flare heuristic confidence ceiling (%)")
	fl.BoolVar(&f.asJSON, "json", false, "print statistics as JSON")
	cmd.MarkFlagsRequiredTogether("lat", "lon")

	return cmd
}

func (f statsFlags) parseOptions(cmd *cobra.Command) (domain.ParseOptions, error) {
	opts := domain.ParseOptions{
		Filter: domain.Filter{ExcludeFlares: f.excludeFlares, PredictableOnly: f.predictableOnly},
		Flare:  f.flare,
	}
	if !cmd.Flags().Changed("lat") {
		return opts, nil
	}
	ref := domain.Point{Lat: f.lat, Lon: f.lon}
	if err := domain.ValidatePoint(ref); err != nil {
		return opts, err
	}
	if err := domain.ValidateRadius(f.radius); err != nil {
		return opts, err
	}
	opts.Reference = &ref
	opts.RadiusMiles = f.radius
	return opts, nil
}

type detectionStats struct {
	Rows        int                               `json:"rows"`
	Detections  int                               `json:"detections"`
	Degraded    string                            `json:"degraded,omitempty"`
	Categories  map[domain.BrightnessCategory]int `json:"categories"`
	DayNight    map[domain.DayNight]int           `json:"dayNight"`
	Predictable int                               `json:"predictable"`
	LikelyFlare int                               `json:"likelyFlare"`
	MaxFRP      *float64                          `json:"maxFrp,omitempty"`
	Nearest     *float64                          `json:"nearestMiles,omitempty"`
	Discarded   map[domain.DiscardReason]int      `json:"discarded"`
}

func collectStats(res domain.ParseResult, opts domain.ParseOptions) detectionStats {
	s := detectionStats{
		Rows:       res.Rows,
		Detections: len(res.Detections),
		Categories: map[domain.BrightnessCategory]int{},
		DayNight:   map[domain.DayNight]int{},
		Discarded:  res.Discarded,
	}
	if res.Degraded != nil {
		s.Degraded = res.Degraded.Error()
	}
	for i := range res.Detections {
		d := &res.Detections[i]
		s.Categories[d.BrightnessCategory]++
		s.DayNight[d.DayNight]++
		if d.Predictable {
			s.Predictable++
		}
		if opts.Flare.IsLikelyFlare(domain.Signature{DayNight: d.DayNight, FRP: d.FRP, Brightness: d.Brightness, Confidence: d.Confidence}) {
			s.LikelyFlare++
		}
		if !math.IsNaN(d.FRP) && (s.MaxFRP == nil || d.FRP > *s.MaxFRP) {
			frp := d.FRP
			s.MaxFRP = &frp
		}
		if d.DistanceFromCenterMiles != nil && (s.Nearest == nil || *d.DistanceFromCenterMiles < *s.Nearest) {
			dist := *d.DistanceFromCenterMiles
			s.Nearest = &dist
		}
	}
	return s
}

func printStats(w io.Writer, s detectionStats) {
	fmt.Fprintf(w, "Rows: %d\n", s.Rows)
	fmt.Fprintf(w, "Detections: %d\n", s.Detections)
	if s.Degraded != "" {
		fmt.Fprintf(w, "Degraded: %s\n", s.Degraded)
	}
	fmt.Fprintf(w, "By category: unknown=%d, calm=%d, moderate=%d, high=%d, severe=%d\n",
		s.Categories[domain.BrightnessUnknown], s.Categories[domain.BrightnessCalm],
		s.Categories[domain.BrightnessModerate], s.Categories[domain.BrightnessHigh],
		s.Categories[domain.BrightnessSevere])
	fmt.Fprintf(w, "Day/night: day=%d, night=%d\n", s.DayNight[domain.Day], s.DayNight[domain.Night])
	fmt.Fprintf(w, "Predictable: %d\n", s.Predictable)
	fmt.Fprintf(w, "Likely flares kept: %d\n", s.LikelyFlare)
	if s.MaxFRP != nil {
		fmt.Fprintf(w, "Max FRP: %g MW\n", *s.MaxFRP)
	}
	if s.Nearest != nil {
		fmt.Fprintf(w, "Nearest: %.2f mi\n", *s.Nearest)
	}

	reasons := make([]string, 0, len(s.Discarded))
	for r := range s.Discarded {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	fmt.Fprint(w, "Discarded:")
	if len(reasons) == 0 {
		fmt.Fprint(w, " none")
	}
	for _, r := range reasons {
		fmt.Fprintf(w, " %s=%d", r, s.Discarded[domain.DiscardReason(r)])
	}
	fmt.Fprintln(w)
}
