package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cacaotherm/internal/config"
	"cacaotherm/internal/export"
	"cacaotherm/internal/material"
	"cacaotherm/internal/storage"
	"cacaotherm/internal/sweep"
	"cacaotherm/internal/therm"
	"cacaotherm/internal/tui"
	"cacaotherm/internal/vessel"
)

var (
	dataDir    string
	configFile string
	preset     string

	dt          float64
	durationH   float64
	ambientC    float64
	relHumidity float64
	safeMaxC    float64
	emergencyC  float64
	rotate      bool

	nx int
	ny int
	nz int

	sweepAmbients   string
	sweepHumidities string

	svgOut    string
	svgWidth  int
	svgHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cacaotherm",
		Short: "cocoa fermentation heat transfer simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cacaotherm", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [vessel]",
		Short: "run a fermentation simulation (box or drum)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [vessel]",
		Short: "run a simulation with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run statistics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [vessel]",
		Short: "list available presets for a vessel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for vessel: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [vessel]",
		Short: "run the same scenario across a grid of ambient conditions",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepAmbients, "ambients", "18,22,26,30", "comma-separated ambient temperatures [°C]")
	sweepCmd.Flags().StringVar(&sweepHumidities, "humidities", "0.8", "comma-separated relative humidities [0..1]")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the run temperature envelope as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgOut, "out", "", "output path (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width [px]")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height [px]")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, sweepCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep [s]")
	cmd.Flags().Float64Var(&durationH, "time", config.DefaultDuration/3600, "duration [h]")
	cmd.Flags().Float64Var(&ambientC, "ambient", config.DefaultAmbientC, "ambient temperature [°C]")
	cmd.Flags().Float64Var(&relHumidity, "humidity", config.DefaultRelHumidity, "ambient relative humidity [0..1]")
	cmd.Flags().Float64Var(&safeMaxC, "safe-max", config.DefaultSafeMaxC, "microbial safety limit [°C]")
	cmd.Flags().Float64Var(&emergencyC, "emergency", config.DefaultEmergencyC, "emergency abort threshold [°C]")
	cmd.Flags().BoolVar(&rotate, "rotate", false, "enable daily rotation (drum only)")
	cmd.Flags().IntVar(&nx, "nx", 0, "grid cells along x")
	cmd.Flags().IntVar(&ny, "ny", 0, "grid cells along y")
	cmd.Flags().IntVar(&nz, "nz", 0, "grid cells along z")
}

// resolveConfig layers preset, config file and CLI flags, in that order of
// increasing precedence, then validates.
func resolveConfig(cmd *cobra.Command, vesselName string) (*config.Config, error) {
	cfg := config.Default()
	cfg.Vessel = vesselName

	if preset != "" {
		p := config.GetPreset(vesselName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(vesselName))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		loaded.Vessel = vesselName
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = durationH * 3600
	}
	if cmd.Flags().Changed("ambient") {
		cfg.Ambient.TempC = ambientC
	}
	if cmd.Flags().Changed("humidity") {
		cfg.Ambient.RelHumidity = relHumidity
	}
	if cmd.Flags().Changed("safe-max") {
		cfg.Limits.SafeMaxC = safeMaxC
	}
	if cmd.Flags().Changed("emergency") {
		cfg.Limits.EmergencyC = emergencyC
	}
	if cmd.Flags().Changed("rotate") {
		cfg.Rotation.Daily = rotate
	}
	if cmd.Flags().Changed("nx") {
		cfg.Resolution.NX = nx
	}
	if cmd.Flags().Changed("ny") {
		cfg.Resolution.NY = ny
	}
	if cmd.Flags().Changed("nz") {
		cfg.Resolution.NZ = nz
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// progress prints hourly state lines and event notices while a run steps.
type progress struct {
	interval float64
	next     float64
}

func (p *progress) OnStep(s therm.Sample) {
	if s.Time < p.next {
		return
	}
	p.next = s.Time + p.interval
	fmt.Printf("t=%6.1fh  peak %5.2f°C  avg %5.2f°C  gen %6.1f W/m³  evap %6.1f W/m³\n",
		s.Time/3600, s.TMax, s.TAvg, s.QGen, s.QEvap)
}

func (p *progress) OnEvent(e therm.Event) {
	at := e.Time / 3600
	switch e.Kind {
	case therm.EventRotation:
		fmt.Printf("rotation %d at t=%.1fh\n", e.Rotation, at)
	case therm.EventMicrobialDeath:
		fmt.Printf("microbial death at t=%.1fh (%.1f°C)\n", at, e.TempC)
	case therm.EventEmergencyStop:
		fmt.Printf("emergency stop at t=%.1fh (%.1f°C)\n", at, e.TempC)
	case therm.EventSolverFailure:
		fmt.Printf("solver failure at t=%.1fh: %v\n", at, e.Err)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	drv, err := vessel.Build(cfg)
	if err != nil {
		return err
	}

	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.Begin(cfg.Vessel)
	if err != nil {
		return err
	}
	drv.SetSnapshots(run)
	drv.AddObserver(&progress{interval: 6 * 3600})

	fmt.Printf("running %s fermentation, %.0fh at dt=%.0fs...\n", cfg.Vessel, cfg.Duration/3600, cfg.Dt)
	start := time.Now()

	result, err := drv.Run(context.Background(), therm.Config{
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		SaveInterval: cfg.SaveInterval,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := run.Finish(cfg.Dt, cfg.Duration, result); err != nil {
		return err
	}

	fmt.Printf("\ncompleted in %v\n", elapsed)
	fmt.Printf("run id: %s\n", run.ID())
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("max temperature: %.2f°C\n", result.MaxTempReached)
	if result.ThermalDeath && result.DeathTimeHours != nil {
		fmt.Printf("thermal death at t=%.1fh\n", *result.DeathTimeHours)
	}
	if result.EmergencyStop && result.AbortTimeHours != nil {
		fmt.Printf("aborted at t=%.1fh\n", *result.AbortTimeHours)
	}
	fmt.Printf("rotations: %d\n", result.Rotations)
	fmt.Printf("moisture loss: %.1f%%\n", result.FinalMoisturePc)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.4f\n", name, val)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	drv, err := vessel.Build(cfg)
	if err != nil {
		return err
	}

	catalog := material.Box()
	if cfg.Vessel == "drum" {
		catalog = material.Drum()
	}
	limits := catalog.Limits
	limits.SafeMax = cfg.Limits.SafeMaxC + material.KelvinOffset
	limits.Emergency = cfg.Limits.EmergencyC + material.KelvinOffset

	result, err := tui.Run(drv, therm.Config{
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		SaveInterval: cfg.SaveInterval,
	}, cfg.Vessel, limits)
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Printf("max temperature: %.2f°C, rotations: %d, moisture loss: %.1f%%\n",
			result.MaxTempReached, result.Rotations, result.FinalMoisturePc)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Vessel", "Created", "Duration", "Dt", "Max °C", "Death", "Abort", "Rotations"})
	for _, run := range runs {
		tw.AppendRow(table.Row{
			run.ID,
			run.Vessel,
			run.Created.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.0fh", run.Duration/3600),
			fmt.Sprintf("%.0fs", run.Dt),
			fmt.Sprintf("%.1f", run.MaxTempC),
			yesNo(run.ThermalDeath),
			yesNo(run.EmergencyStop),
			run.Rotations,
		})
	}
	tw.Render()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	if len(res.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("vessel: %s\n", res.Vessel)
	fmt.Printf("samples: %d\n\n", len(res.Times))

	series := []struct {
		caption string
		data    []float64
	}{
		{"peak bed temperature [°C]", res.TMax},
		{"average bed temperature [°C]", res.TAvg},
		{"heat generation [W/m³]", res.QGen},
		{"evaporative cooling [W/m³]", res.QEvap},
		{"cumulative moisture loss [kg/m³]", res.MoistureLoss},
	}

	for _, s := range series {
		graph := asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if len(res.Times) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time_hours", "t_max_celsius", "t_min_celsius", "t_avg_celsius",
		"heat_generation_w_m3", "evaporative_cooling_w_m3", "moisture_loss_kg_m3"}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range res.Times {
		row := []string{
			strconv.FormatFloat(res.Times[i], 'f', 4, 64),
			strconv.FormatFloat(res.TMax[i], 'f', 4, 64),
			strconv.FormatFloat(res.TMin[i], 'f', 4, 64),
			strconv.FormatFloat(res.TAvg[i], 'f', 4, 64),
			strconv.FormatFloat(res.QGen[i], 'f', 4, 64),
			strconv.FormatFloat(res.QEvap[i], 'f', 4, 64),
			strconv.FormatFloat(res.MoistureLoss[i], 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", p, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ambients, err := parseFloats(sweepAmbients)
	if err != nil {
		return fmt.Errorf("--ambients: %w", err)
	}
	humidities, err := parseFloats(sweepHumidities)
	if err != nil {
		return fmt.Errorf("--humidities: %w", err)
	}

	points := sweep.Grid(ambients, humidities)
	fmt.Printf("sweeping %s over %d ambient conditions, %.0fh each...\n",
		cfg.Vessel, len(points), cfg.Duration/3600)
	start := time.Now()

	outcomes, err := sweep.NewEnsemble(cfg).Run(context.Background(), points)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Ambient °C", "RH", "Max °C", "Death", "Death @h", "Abort", "Rotations", "Moisture %"})
	for _, out := range outcomes {
		deathAt := "-"
		if out.DeathTimeHours != nil {
			deathAt = fmt.Sprintf("%.1f", *out.DeathTimeHours)
		}
		tw.AppendRow(table.Row{
			fmt.Sprintf("%.1f", out.AmbientC),
			fmt.Sprintf("%.2f", out.RelHumidity),
			fmt.Sprintf("%.2f", out.MaxTempC),
			yesNo(out.ThermalDeath),
			deathAt,
			yesNo(out.EmergencyStop),
			out.Rotations,
			fmt.Sprintf("%.1f", out.MoistureLossPc),
		})
	}
	tw.Render()
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	svg := export.TemperatureSVG(res, svgWidth, svgHeight)
	if svg == "" {
		return fmt.Errorf("not enough samples to plot")
	}

	out := svgOut
	if out == "" {
		out = runID + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}
