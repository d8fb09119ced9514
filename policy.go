package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/habitchart/internal/series"
	"github.com/sadopc/habitchart/internal/store"
)

// policyFlags override stored preferences for one invocation.
type policyFlags struct {
	bpHabit string
	marker  float64
}

func (f *policyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.bpHabit, "bp-habit", series.DefaultBloodPressureHabit, "habit whose memos carry readings (substring match)")
	cmd.Flags().Float64Var(&f.marker, "marker", series.DefaultMarkerValue, "y-value of the all-habits-completed marker")
}

func (f policyFlags) apply(cmd *cobra.Command, p store.Preferences) (store.Preferences, error) {
	if cmd.Flags().Changed("bp-habit") {
		p.BPHabit = f.bpHabit
	}
	if cmd.Flags().Changed("marker") {
		if err := series.CheckMarkerValue(f.marker); err != nil {
			return p, fmt.Errorf("--marker: %w", err)
		}
		p.MarkerValue = f.marker
	}
	return p, nil
}

// policy reads the stored preferences and applies any flags that were set.
func (f policyFlags) policy(cmd *cobra.Command) (series.Policy, error) {
	s, err := store.New(cfg.DatabasePath)
	if err != nil {
		return series.Policy{}, fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	prefs, err := s.Preferences()
	if err != nil {
		return series.Policy{}, fmt.Errorf("read preferences: %w", err)
	}
	prefs, err = f.apply(cmd, prefs)
	if err != nil {
		return series.Policy{}, err
	}
	return prefs.Policy(), nil
}
